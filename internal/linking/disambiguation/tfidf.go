package disambiguation

import (
	"math"
	"strings"
	"sync"

	"github.com/turtacn/ontolink/internal/database"
	"github.com/turtacn/ontolink/internal/domain/document"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
)

// DefaultTfIdfThreshold is the minimum cosine similarity the top candidate
// must clear before TF-IDF disambiguation commits to it.
const DefaultTfIdfThreshold = 0.7

// vectorizer holds per-parser inverse document frequencies computed over the
// parser's term norms.  Built once per parser and reused across documents;
// the store is read-only by the time disambiguation runs.
type vectorizer struct {
	idf  map[string]float64
	docs int
}

func newVectorizer(termNorms []string) *vectorizer {
	df := make(map[string]int)
	for _, norm := range termNorms {
		seen := make(map[string]struct{})
		for _, tok := range strings.Fields(strings.ToUpper(norm)) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	idf := make(map[string]float64, len(df))
	for tok, count := range df {
		idf[tok] = math.Log(float64(1+len(termNorms))/float64(1+count)) + 1
	}
	return &vectorizer{idf: idf, docs: len(termNorms)}
}

// vectorize builds a tf-idf vector for a bag of texts.  Tokens outside the
// vocabulary are ignored.
func (v *vectorizer) vectorize(texts []string) map[string]float64 {
	tf := make(map[string]float64)
	for _, text := range texts {
		for _, tok := range strings.Fields(strings.ToUpper(text)) {
			if _, ok := v.idf[tok]; ok {
				tf[tok]++
			}
		}
	}
	for tok := range tf {
		tf[tok] *= v.idf[tok]
	}
	return tf
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for tok, va := range a {
		normA += va * va
		if vb, ok := b[tok]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TfIdf scores each candidate EquivalentIDSet's unambiguous synonyms against
// a bag-of-mentions representation of the document.  The top-scoring set is
// selected alone when its score clears the threshold and it is the unique
// holder of the top synonym.
type TfIdf struct {
	store     *database.SynonymStore
	threshold float64

	// synonyms contributing to a set's representation must come from terms
	// aggregated by one of these strategies
	strategies []equivalence.AggregationStrategy

	mu          sync.Mutex
	vectorizers map[string]*vectorizer

	// per-document cache, bounded to the single most recent document;
	// keyed by document identity, not content.  The vector depends on the
	// parser vocabulary, so the parser is part of the cache key.
	cachedDocID  string
	cachedParser string
	cachedVector map[string]float64
}

// NewTfIdf returns the strategy.  The synonym representation of each
// candidate set is restricted to unambiguous terms unless other aggregation
// strategies are given.
func NewTfIdf(store *database.SynonymStore, threshold float64, strategies ...equivalence.AggregationStrategy) *TfIdf {
	if len(strategies) == 0 {
		strategies = []equivalence.AggregationStrategy{equivalence.Unambiguous}
	}
	return &TfIdf{
		store:       store,
		threshold:   threshold,
		strategies:  strategies,
		vectorizers: make(map[string]*vectorizer),
	}
}

// Name implements Strategy.
func (s *TfIdf) Name() string { return "TfIdfDisambiguation" }

// Prepare implements Strategy.  Building the document's bag-of-mentions
// vector is deferred to first use, since the vocabulary is per parser;
// Prepare only invalidates stale cache entries.
func (s *TfIdf) Prepare(doc *document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedDocID != doc.ID {
		s.cachedDocID = ""
		s.cachedParser = ""
		s.cachedVector = nil
	}
}

// Invalidate clears all per-document state.
func (s *TfIdf) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedDocID = ""
	s.cachedParser = ""
	s.cachedVector = nil
}

// Disambiguate implements Strategy.
func (s *TfIdf) Disambiguate(
	sets []equivalence.EquivalentIDSet,
	doc *document.Document,
	parserName string,
) []equivalence.EquivalentIDSet {
	v := s.vectorizerFor(parserName)
	docVector := s.documentVector(doc, parserName, v)

	type scored struct {
		set        equivalence.EquivalentIDSet
		score      float64
		topSynonym string
	}
	results := make([]scored, 0, len(sets))
	synonymHolders := make(map[string]int)

	for _, set := range sets {
		synonyms := s.synonymsForSet(parserName, set)
		for _, syn := range synonyms {
			synonymHolders[syn]++
		}
		best := scored{set: set}
		for _, syn := range synonyms {
			if score := cosine(docVector, v.vectorize([]string{syn})); score > best.score {
				best.score = score
				best.topSynonym = syn
			}
		}
		results = append(results, best)
	}

	var winner *scored
	for i := range results {
		if winner == nil || results[i].score > winner.score {
			winner = &results[i]
		}
	}
	if winner == nil || winner.score < s.threshold || winner.topSynonym == "" {
		return sets
	}
	// commit only when no other candidate set also holds the top synonym
	if synonymHolders[winner.topSynonym] > 1 {
		return sets
	}
	return []equivalence.EquivalentIDSet{winner.set}
}

// synonymsForSet returns the term norms representing a candidate set: the
// synonyms of its member ids whose owning terms were aggregated by one of
// the configured strategies.  Deduplicated across member ids.
func (s *TfIdf) synonymsForSet(parserName string, set equivalence.EquivalentIDSet) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range set.IDs() {
		for _, norm := range s.store.SynonymsForID(parserName, id, s.strategies...) {
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			out = append(out, norm)
		}
	}
	return out
}

func (s *TfIdf) vectorizerFor(parserName string) *vectorizer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vectorizers[parserName]; ok {
		return v
	}
	terms := s.store.GetAll(parserName)
	norms := make([]string, 0, len(terms))
	for norm := range terms {
		norms = append(norms, norm)
	}
	v := newVectorizer(norms)
	s.vectorizers[parserName] = v
	return v
}

func (s *TfIdf) documentVector(doc *document.Document, parserName string, v *vectorizer) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedDocID == doc.ID && s.cachedParser == parserName && s.cachedVector != nil {
		return s.cachedVector
	}
	vector := v.vectorize(doc.MentionNorms())
	s.cachedDocID = doc.ID
	s.cachedParser = parserName
	s.cachedVector = vector
	return vector
}
