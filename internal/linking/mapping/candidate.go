// Package mapping turns candidate synonym terms for an entity mention into
// final Mapping records.  Strategies filter candidates, an ambiguity check
// escalates to the disambiguation chain, and a factory materialises the
// surviving equivalence classes as mappings.
package mapping

import (
	"github.com/turtacn/ontolink/internal/domain/equivalence"
)

// TermWithMetrics is a candidate SynonymTerm annotated with the quality
// metrics of the match that produced it.
type TermWithMetrics struct {
	// Term is the matched synonym term.
	Term *equivalence.SynonymTerm

	// SearchScore is the score of a fuzzy or embedding search hit, nil for
	// pure dictionary hits.
	SearchScore *float64

	// ExactMatch reports whether the mention matched the term exactly.
	ExactMatch bool
}

// Score returns the search score, or 0 when absent.
func (t TermWithMetrics) Score() float64 {
	if t.SearchScore == nil {
		return 0
	}
	return *t.SearchScore
}

// HasScore reports whether a search score is present.
func (t TermWithMetrics) HasScore() bool { return t.SearchScore != nil }
