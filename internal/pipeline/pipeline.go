// Package pipeline is the composition root of the OntoLink engine.  It owns
// the stores and every collaborator, wires them from configuration, runs the
// startup population/curation phase and exposes the runtime linking entry
// point.  There is no global state: multiple isolated pipelines can coexist,
// e.g. in tests.
package pipeline

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ontolink/internal/config"
	"github.com/turtacn/ontolink/internal/curation"
	"github.com/turtacn/ontolink/internal/database"
	"github.com/turtacn/ontolink/internal/domain/document"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ontolink/internal/ingestion"
	"github.com/turtacn/ontolink/internal/language"
	"github.com/turtacn/ontolink/internal/linking/disambiguation"
	"github.com/turtacn/ontolink/internal/linking/mapping"
	"github.com/turtacn/ontolink/pkg/errors"
)

// Pipeline wires ingestion, curation and linking around a pair of stores.
type Pipeline struct {
	cfg    *config.Config
	logger logging.Logger

	synonyms   *database.SynonymStore
	metadata   *database.MetadataStore
	normalizer language.Normalizer
	runner     *mapping.Runner
	metrics    *prometheus.LinkingMetrics

	// parser name -> entity class, for runtime candidate lookup
	parserClass map[string]string

	// parser name -> curations eligible for dictionary-based NER
	nerCurations map[string][]*equivalence.Curation
}

// New builds a pipeline from configuration.  metrics may be nil when
// exposition is disabled.
func New(cfg *config.Config, logger logging.Logger, metrics *prometheus.LinkingMetrics) *Pipeline {
	synonyms := database.NewSynonymStore()
	metadata := database.NewMetadataStore()
	scorer := language.NewTokenSetRatio()

	strategies := []mapping.Strategy{
		mapping.NewExactMatch(equivalence.HighlyLikely),
		mapping.NewSymbolMatch(equivalence.Probable),
		mapping.NewTermNormIsSubstring(equivalence.Probable, cfg.Linking.SubstringMinLength),
		mapping.NewStrongMatch(equivalence.Probable, cfg.Linking.StrongMatchThreshold, cfg.Linking.StrongMatchDifferential),
		mapping.NewStrongMatchWithEmbeddingConfirmation(
			equivalence.Probable,
			cfg.Linking.StrongMatchThreshold,
			cfg.Linking.StrongMatchDifferential,
			language.NewThresholdScorer(scorer, cfg.Linking.EmbeddingConfirmThreshold),
		),
		mapping.NewDefinedElsewhereInDocument(equivalence.Probable),
	}
	disambiguators := []disambiguation.Strategy{
		disambiguation.NewDefinedElsewhereInDocument(),
		disambiguation.NewTfIdf(synonyms, cfg.Linking.TfIdfThreshold),
		disambiguation.NewAnnotationLevel(metadata),
	}

	return &Pipeline{
		cfg:          cfg,
		logger:       logger.Named("pipeline"),
		synonyms:     synonyms,
		metadata:     metadata,
		normalizer:   language.NewDefaultNormalizer(),
		runner:       mapping.NewRunner(strategies, disambiguators, mapping.NewFactory(metadata), logger),
		metrics:      metrics,
		parserClass:  make(map[string]string),
		nerCurations: make(map[string][]*equivalence.Curation),
	}
}

// SynonymStore exposes the lookup API to downstream matchers.
func (p *Pipeline) SynonymStore() *database.SynonymStore { return p.synonyms }

// MetadataStore exposes the per-id metadata.
func (p *Pipeline) MetadataStore() *database.MetadataStore { return p.metadata }

// NERCurations returns a parser's curations eligible for dictionary-based
// NER matching, as exported by its curation session.
func (p *Pipeline) NERCurations(parserName string) []*equivalence.Curation {
	return p.nerCurations[parserName]
}

// Populate runs the startup phase: every configured parser is ingested and
// curated.  Parsers own disjoint store namespaces, so they run in parallel;
// the first failure cancels the rest.
func (p *Pipeline) Populate(ctx context.Context) error {
	global, err := p.loadGlobalActions()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, pc := range p.cfg.Parsers {
		pc := pc
		p.parserClass[pc.Name] = pc.EntityClass
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return p.populateParser(pc, global)
		})
	}
	return g.Wait()
}

func (p *Pipeline) populateParser(pc config.ParserConfig, global *equivalence.GlobalParserActions) error {
	start := time.Now()

	if p.synonyms.Count(pc.Name) > 0 {
		p.logger.Info("parser already populated, skipping",
			logging.String("parser", pc.Name))
		return nil
	}

	rows, err := readRows(pc)
	if err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.RowsIngestedTotal.WithLabelValues(pc.Name).Add(float64(len(rows)))
	}

	var opts []ingestion.ParserOption
	if pc.OneIDPerSet {
		opts = append(opts, ingestion.WithGrouping(ingestion.OneIDPerSet))
	}
	parser := ingestion.NewParser(
		pc.Name, pc.Source, pc.EntityClass,
		ingestion.NewStaticSource(rows),
		p.normalizer,
		language.NewTokenSetRatio(),
		pc.MergeThreshold,
		p.logger,
		opts...,
	)
	if err := parser.PopulateStores(p.synonyms, p.metadata); err != nil {
		return err
	}

	curations, err := p.loadCurations(pc)
	if err != nil {
		return err
	}
	processor := curation.NewProcessor(
		pc.Name, pc.EntityClass,
		p.synonyms.GetAll(pc.Name),
		p.normalizer,
		p.logger,
	)
	if err := processor.Process(curations, global); err != nil {
		return err
	}
	nerCurations, finalTerms := processor.ExportNERCurationsAndFinalTerms()
	p.synonyms.ReplaceParser(pc.Name, finalTerms)
	p.nerCurations[pc.Name] = nerCurations

	if p.metrics != nil {
		p.metrics.TermsResolvedTotal.WithLabelValues(pc.Name).Add(float64(len(finalTerms)))
		p.metrics.StoreTerms.WithLabelValues(pc.Name).Set(float64(p.synonyms.Count(pc.Name)))
		p.metrics.StoreIDs.WithLabelValues(pc.Name).Set(float64(p.metadata.Count(pc.Name)))
		p.metrics.IngestDuration.WithLabelValues(pc.Name).Observe(time.Since(start).Seconds())

		stats := processor.Stats()
		for behaviour, n := range stats.Applied {
			p.metrics.CurationsAppliedTotal.WithLabelValues(pc.Name, behaviour).Add(float64(n))
		}
		for reason, n := range stats.Discarded {
			p.metrics.CurationsDiscardedTotal.WithLabelValues(pc.Name, reason).Add(float64(n))
		}
		p.metrics.CurationConflictsTotal.WithLabelValues(pc.Name).Add(float64(stats.Conflicts))
		p.metrics.GlobalIDDropsTotal.WithLabelValues(pc.Name).Add(float64(stats.GlobalIDDrops))
	}
	p.logger.Info("parser ready",
		logging.String("parser", pc.Name),
		logging.Int("terms", len(finalTerms)),
		logging.Duration("took", time.Since(start)),
	)
	return nil
}

// LinkDocument resolves every entity of the document against the parsers
// matching its entity class.  Entities with no exact dictionary hit are left
// unmapped; richer candidate generation (fuzzy or embedding search) plugs in
// through LinkEntity.
func (p *Pipeline) LinkDocument(doc *document.Document) {
	// normalize every mention up front: disambiguation builds its document
	// representation from the normalized forms of all entities, not just
	// those a parser serves
	for _, entity := range doc.Entities {
		if entity.MatchNorm == "" {
			entity.MatchNorm = p.normalizer.Normalize(entity.Match, entity.EntityClass)
		}
	}
	for _, entity := range doc.Entities {
		for parserName, class := range p.parserClass {
			if class != entity.EntityClass {
				continue
			}
			candidates := p.exactCandidates(parserName, entity)
			p.LinkEntity(doc, entity, parserName, candidates)
		}
	}
}

// LinkEntity runs the mapping strategy chain for one entity against
// pre-found candidates of one parser, attaching the resulting mappings.
func (p *Pipeline) LinkEntity(doc *document.Document, entity *document.Entity, parserName string, candidates []mapping.TermWithMetrics) {
	if len(candidates) == 0 {
		return
	}
	if entity.MatchNorm == "" {
		entity.MatchNorm = p.normalizer.Normalize(entity.Match, entity.EntityClass)
	}
	mappings := p.runner.Run(entity.Match, entity.MatchNorm, doc, candidates, parserName)
	if len(mappings) == 0 {
		if p.metrics != nil {
			p.metrics.StrategyAbstentionsTotal.WithLabelValues(parserName).Inc()
		}
		return
	}
	for _, m := range mappings {
		entity.AddMapping(m)
		if p.metrics != nil {
			p.metrics.MappingsTotal.WithLabelValues(parserName, m.Confidence.String()).Inc()
			if m.DisambiguationStrategy != "" {
				p.metrics.DisambiguationHitsTotal.WithLabelValues(parserName, m.DisambiguationStrategy).Inc()
			}
		}
	}
}

// exactCandidates looks the entity's normalized match up in the synonym
// store.
func (p *Pipeline) exactCandidates(parserName string, entity *document.Entity) []mapping.TermWithMetrics {
	if entity.MatchNorm == "" {
		entity.MatchNorm = p.normalizer.Normalize(entity.Match, entity.EntityClass)
	}
	term, err := p.synonyms.Get(parserName, entity.MatchNorm)
	if err != nil {
		return nil
	}
	return []mapping.TermWithMetrics{{Term: term, ExactMatch: true}}
}

func (p *Pipeline) loadGlobalActions() (*equivalence.GlobalParserActions, error) {
	if p.cfg.GlobalActionsPath == "" {
		return nil, nil
	}
	f, err := os.Open(p.cfg.GlobalActionsPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCurationLoadFailed, "cannot open global actions file").
			WithDetail("path=" + p.cfg.GlobalActionsPath)
	}
	defer f.Close()
	return curation.LoadGlobalActions(f)
}

func (p *Pipeline) loadCurations(pc config.ParserConfig) ([]*equivalence.Curation, error) {
	if pc.CurationsPath == "" {
		return nil, nil
	}
	f, err := os.Open(pc.CurationsPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCurationLoadFailed, "cannot open curations file").
			WithDetail("path=" + pc.CurationsPath)
	}
	defer f.Close()
	return curation.LoadCurations(f)
}

// readRows reads a parser's synonym table eagerly so the file handle is not
// held for the parser's lifetime.
func readRows(pc config.ParserConfig) ([]ingestion.Row, error) {
	f, err := os.Open(pc.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIngestFailed, "cannot open synonym table").
			WithDetail("path=" + pc.Path)
	}
	defer f.Close()
	var source ingestion.RowSource
	switch pc.Format {
	case "jsonlines":
		source = ingestion.NewJSONLinesSource(f)
	default:
		source = ingestion.NewTSVSource(f)
	}
	return source.Rows()
}
