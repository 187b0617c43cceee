// Package disambiguation narrows an ambiguous set of equivalence classes
// down to one using document-level evidence.  Strategies are stateless
// between documents: Prepare is called once per document before
// Disambiguate, and any per-document state is bounded to the single most
// recent document.
package disambiguation

import (
	"github.com/turtacn/ontolink/internal/domain/document"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
)

// Strategy narrows a candidate set of EquivalentIDSets using the document as
// context.  Implementations return a subset of the input; returning the
// input unchanged means the strategy could not decide.
type Strategy interface {
	// Name identifies the strategy in Mapping provenance.
	Name() string

	// Prepare runs per-document setup.  Never cached across documents,
	// since document state mutates as entities are resolved.
	Prepare(doc *document.Document)

	// Disambiguate returns the surviving subset of sets.
	Disambiguate(sets []equivalence.EquivalentIDSet, doc *document.Document, parserName string) []equivalence.EquivalentIDSet
}

// DefinedElsewhereInDocument keeps the sets containing an id already mapped
// on another entity in the same document.
type DefinedElsewhereInDocument struct {
	mapped map[equivalence.IDAndSource]struct{}
}

// NewDefinedElsewhereInDocument returns the strategy.
func NewDefinedElsewhereInDocument() *DefinedElsewhereInDocument {
	return &DefinedElsewhereInDocument{}
}

// Name implements Strategy.
func (s *DefinedElsewhereInDocument) Name() string { return "DefinedElsewhereInDocument" }

// Prepare implements Strategy.
func (s *DefinedElsewhereInDocument) Prepare(doc *document.Document) {
	s.mapped = doc.MappedIDs()
}

// Disambiguate implements Strategy.
func (s *DefinedElsewhereInDocument) Disambiguate(
	sets []equivalence.EquivalentIDSet,
	_ *document.Document,
	_ string,
) []equivalence.EquivalentIDSet {
	var out []equivalence.EquivalentIDSet
	for _, set := range sets {
		for _, pair := range set.Pairs() {
			if _, ok := s.mapped[pair]; ok {
				out = append(out, set)
				break
			}
		}
	}
	if len(out) == 0 {
		return sets
	}
	return out
}
