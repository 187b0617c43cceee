package equivalence

import (
	"sort"

	"github.com/samber/lo"
)

// AggregationStrategy records why an AssociatedIDSets has its current shape.
// It is retained for provenance and debugging; after initial grouping it does
// not participate in control flow, with one exception: the TF-IDF
// disambiguation strategy restricts its synonym representation to terms
// aggregated by configurable strategies (default Unambiguous).
type AggregationStrategy string

const (
	// NoStrategy means no string scorer was configured; every id became its
	// own equivalence class.  Not recommended: it maximises ambiguity.
	NoStrategy AggregationStrategy = "NO_STRATEGY"

	// Unambiguous means the synonym referenced a single id.
	Unambiguous AggregationStrategy = "UNAMBIGUOUS"

	// MergedAsNonSymbolic means all ids were merged into one class because
	// the synonym is a natural-language phrase, not a symbol.
	MergedAsNonSymbolic AggregationStrategy = "MERGED_AS_NON_SYMBOLIC"

	// ResolvedBySimilarity means classes were formed by greedy clustering of
	// default labels with a string similarity scorer.
	ResolvedBySimilarity AggregationStrategy = "RESOLVED_BY_SIMILARITY"

	// Custom means a parser-specific grouping override produced the classes.
	Custom AggregationStrategy = "CUSTOM"

	// ModifiedByCuration means a curation edit changed the grouping.
	ModifiedByCuration AggregationStrategy = "MODIFIED_BY_CURATION"
)

// IsValid reports whether s is one of the defined strategies.
func (s AggregationStrategy) IsValid() bool {
	switch s {
	case NoStrategy, Unambiguous, MergedAsNonSymbolic, ResolvedBySimilarity, Custom, ModifiedByCuration:
		return true
	}
	return false
}

func (s AggregationStrategy) String() string { return string(s) }

// SynonymTerm is the unit of the synonym store: one normalized surface form
// of one parser, together with all the raw strings that normalize to it and
// the equivalence classes of identifiers it may denote.
//
// A term_norm is unique per parser: only one SynonymTerm may exist for a
// given (parser, term_norm) pair at any time.  SynonymTerms are replaced
// wholesale, never partially mutated in place: curation edits produce a new
// value via ReplaceIDSets.
type SynonymTerm struct {
	// TermNorm is the canonical normalized form, the dedup key.
	TermNorm string `json:"term_norm"`

	// Terms holds the raw surface strings that normalize to TermNorm,
	// sorted and deduplicated.
	Terms []string `json:"terms"`

	// IsSymbolic is true when every raw synonym classifies as an acronym or
	// code rather than a natural-language phrase.
	IsSymbolic bool `json:"is_symbolic"`

	// MappingTypes records the provenance labels of how the synonym was
	// derived in the source ontology (e.g. "exactSyn", "xref").
	MappingTypes []string `json:"mapping_types"`

	// IDSets holds the equivalence classes of identifiers this synonym may
	// denote.
	IDSets AssociatedIDSets `json:"associated_id_sets"`

	// ParserName is the owning parser.
	ParserName string `json:"parser_name"`

	// AggregatedBy records how IDSets got its shape.
	AggregatedBy AggregationStrategy `json:"aggregated_by"`
}

// NewSynonymTerm constructs a SynonymTerm with sorted, deduplicated raw
// synonym and mapping-type sets.
func NewSynonymTerm(
	termNorm string,
	rawSynonyms []string,
	isSymbolic bool,
	mappingTypes []string,
	idSets AssociatedIDSets,
	parserName string,
	aggregatedBy AggregationStrategy,
) *SynonymTerm {
	terms := lo.Uniq(rawSynonyms)
	sort.Strings(terms)
	types := lo.Uniq(mappingTypes)
	sort.Strings(types)
	return &SynonymTerm{
		TermNorm:     termNorm,
		Terms:        terms,
		IsSymbolic:   isSymbolic,
		MappingTypes: types,
		IDSets:       idSets,
		ParserName:   parserName,
		AggregatedBy: aggregatedBy,
	}
}

// IsAmbiguous reports whether the term denotes more than one equivalence
// class.
func (t *SynonymTerm) IsAmbiguous() bool { return t.IDSets.Size() > 1 }

// Equal reports whether two terms are identical in every field, not just in
// their id sets.  Stores use it to tell a harmless re-add of the same term
// from a genuine duplicate-key conflict.
func (t *SynonymTerm) Equal(other *SynonymTerm) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.TermNorm == other.TermNorm &&
		t.ParserName == other.ParserName &&
		t.IsSymbolic == other.IsSymbolic &&
		t.AggregatedBy == other.AggregatedBy &&
		slicesEqual(t.Terms, other.Terms) &&
		slicesEqual(t.MappingTypes, other.MappingTypes) &&
		t.IDSets.Equal(other.IDSets)
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ReplaceIDSets returns a copy of the term with a new AssociatedIDSets and
// aggregation strategy.  The receiver is not modified.
func (t *SynonymTerm) ReplaceIDSets(idSets AssociatedIDSets, by AggregationStrategy) *SynonymTerm {
	clone := *t
	clone.IDSets = idSets
	clone.AggregatedBy = by
	return &clone
}
