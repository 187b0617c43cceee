package prometheus

// LinkingMetrics holds the engine's metrics, grouped by pipeline phase.
type LinkingMetrics struct {
	// Ingestion
	RowsIngestedTotal  CounterVec
	TermsResolvedTotal CounterVec
	IngestDuration     HistogramVec
	StoreTerms         GaugeVec
	StoreIDs           GaugeVec

	// Curation
	CurationsAppliedTotal   CounterVec
	CurationsDiscardedTotal CounterVec
	CurationConflictsTotal  CounterVec
	GlobalIDDropsTotal      CounterVec

	// Linking
	MappingsTotal            CounterVec
	DisambiguationHitsTotal  CounterVec
	StrategyAbstentionsTotal CounterVec
}

// DefaultIngestDurationBuckets covers startup-phase ingestion runs, which
// range from milliseconds for small vocabularies to minutes for full
// ontologies.
var DefaultIngestDurationBuckets = []float64{.05, .1, .5, 1, 5, 15, 60, 300}

// NewLinkingMetrics registers all engine metrics on the collector.
func NewLinkingMetrics(collector MetricsCollector) *LinkingMetrics {
	m := &LinkingMetrics{}

	m.RowsIngestedTotal = collector.RegisterCounter("rows_ingested_total", "Ontology rows read", "parser")
	m.TermsResolvedTotal = collector.RegisterCounter("terms_resolved_total", "Synonym terms produced by ingestion", "parser")
	m.IngestDuration = collector.RegisterHistogram("ingest_duration_seconds", "Per-parser ingestion duration", DefaultIngestDurationBuckets, "parser")
	m.StoreTerms = collector.RegisterGauge("store_terms", "Synonym terms currently loaded", "parser")
	m.StoreIDs = collector.RegisterGauge("store_ids", "Identifiers currently loaded", "parser")

	m.CurationsAppliedTotal = collector.RegisterCounter("curations_applied_total", "Curations applied", "parser", "behaviour")
	m.CurationsDiscardedTotal = collector.RegisterCounter("curations_discarded_total", "Curations discarded", "parser", "reason")
	m.CurationConflictsTotal = collector.RegisterCounter("curation_conflicts_total", "Curations excluded by conflict analysis", "parser")
	m.GlobalIDDropsTotal = collector.RegisterCounter("global_id_drops_total", "Identifiers dropped by global actions", "parser")

	m.MappingsTotal = collector.RegisterCounter("mappings_total", "Mappings produced", "parser", "confidence")
	m.DisambiguationHitsTotal = collector.RegisterCounter("disambiguation_hits_total", "Successful disambiguations", "parser", "strategy")
	m.StrategyAbstentionsTotal = collector.RegisterCounter("strategy_abstentions_total", "Mentions no strategy resolved", "parser")

	return m
}
