package disambiguation

import (
	"github.com/turtacn/ontolink/internal/database"
	"github.com/turtacn/ontolink/internal/domain/document"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
)

// AnnotationLevel keeps the sets whose member ids carry the highest
// parser-supplied annotation richness score.  Ties keep every tied winner;
// this strategy narrows but never invents a single answer.
type AnnotationLevel struct {
	metadata *database.MetadataStore
}

// NewAnnotationLevel returns the strategy.
func NewAnnotationLevel(metadata *database.MetadataStore) *AnnotationLevel {
	return &AnnotationLevel{metadata: metadata}
}

// Name implements Strategy.
func (s *AnnotationLevel) Name() string { return "AnnotationLevelDisambiguation" }

// Prepare implements Strategy.  No per-document state.
func (s *AnnotationLevel) Prepare(_ *document.Document) {}

// Disambiguate implements Strategy.
func (s *AnnotationLevel) Disambiguate(
	sets []equivalence.EquivalentIDSet,
	_ *document.Document,
	parserName string,
) []equivalence.EquivalentIDSet {
	type scored struct {
		set   equivalence.EquivalentIDSet
		score float64
	}
	results := make([]scored, 0, len(sets))
	best := 0.0
	for _, set := range sets {
		// ids without a recorded score count as 0, so an unscored set
		// still ties with a known-zero one
		entry := scored{set: set}
		for _, id := range set.IDs() {
			if score, ok := s.metadata.AnnotationScore(parserName, id); ok && score > entry.score {
				entry.score = score
			}
		}
		if entry.score > best {
			best = entry.score
		}
		results = append(results, entry)
	}

	var out []equivalence.EquivalentIDSet
	for _, entry := range results {
		if entry.score == best {
			out = append(out, entry.set)
		}
	}
	return out
}
