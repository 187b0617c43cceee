package equivalence

// LinkConfidence is the confidence tier attached to a Mapping.  It is a
// label for human consumers; it has no bearing on the linking algorithm
// itself, except that ambiguity always downgrades to Ambiguous so it is
// never hidden behind a high-confidence label.
type LinkConfidence string

const (
	HighlyLikely LinkConfidence = "highly_likely"
	Probable     LinkConfidence = "probable"
	Ambiguous    LinkConfidence = "ambiguous"
)

// IsValid reports whether c is one of the defined tiers.
func (c LinkConfidence) IsValid() bool {
	switch c {
	case HighlyLikely, Probable, Ambiguous:
		return true
	}
	return false
}

func (c LinkConfidence) String() string { return string(c) }

// Mapping is the final output record attached to a resolved entity mention.
// Created only by the mapping strategy chain; immutable once created.
type Mapping struct {
	// DefaultLabel is the preferred label of the concept per the metadata
	// store.
	DefaultLabel string `json:"default_label"`

	// ID is the concept identifier, URL-stripped when the raw id is an IRI.
	ID string `json:"id"`

	// Source is the ontology source the id belongs to.
	Source string `json:"source"`

	// ParserName is the parser whose data produced this mapping.
	ParserName string `json:"parser_name"`

	// Confidence is the tier assigned by the producing strategy, downgraded
	// to Ambiguous when more than one equivalence class survived.
	Confidence LinkConfidence `json:"confidence"`

	// MappingStrategy names the mapping strategy that produced this record.
	MappingStrategy string `json:"mapping_strategy"`

	// DisambiguationStrategy names the disambiguation strategy that narrowed
	// the candidate set, empty when none succeeded or none was needed.
	DisambiguationStrategy string `json:"disambiguation_strategy,omitempty"`

	// Metadata carries arbitrary provenance fields copied from the metadata
	// store, minus the default label.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
