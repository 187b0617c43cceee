// Package database provides the in-memory stores backing the linking engine:
// a synonym store keyed by (parser, term_norm) and a metadata store keyed by
// (parser, id).  Both are safe for concurrent use.  Stores are plain values
// wired explicitly into their consumers; there is no package-level default
// instance.
package database

import (
	"sort"
	"sync"

	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/pkg/errors"
)

// ModificationResult describes the outcome of dropping an EquivalentIDSet
// from a synonym term.
type ModificationResult string

const (
	// IDSetModified means the id set was removed and the term survives with
	// the remainder.
	IDSetModified ModificationResult = "ID_SET_MODIFIED"

	// TermModified means removing the id set emptied the term, so the whole
	// term was dropped.
	TermModified ModificationResult = "SYNONYM_TERM_DROPPED"

	// NoModification means the term did not contain the id set.
	NoModification ModificationResult = "NO_MODIFICATION"
)

func (r ModificationResult) String() string { return string(r) }

// SynonymStore holds every SynonymTerm of every loaded parser, with two
// indices: by (parser, term_norm) and by (parser, id).  The two indices are
// kept consistent under a single lock, so every id in the reverse index
// points at exactly the terms whose id sets span it.  Terms are immutable
// values; updates replace the stored pointer wholesale.
type SynonymStore struct {
	mu sync.RWMutex

	// parser -> term_norm -> term
	terms map[string]map[string]*equivalence.SynonymTerm

	// parser -> id -> set of term_norms spanning that id
	byID map[string]map[string]map[string]struct{}
}

// NewSynonymStore returns an empty store.
func NewSynonymStore() *SynonymStore {
	return &SynonymStore{
		terms: make(map[string]map[string]*equivalence.SynonymTerm),
		byID:  make(map[string]map[string]map[string]struct{}),
	}
}

// Add inserts terms for a parser.  A term_norm already present is a hard
// conflict unless the incoming term is identical in every field: population
// is expected to have deduplicated by term_norm already, so any divergence
// means two code paths disagree about what the synonym denotes.  Re-adding
// an identical term is a no-op.
func (s *SynonymStore) Add(parserName string, terms []*equivalence.SynonymTerm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNorm := s.normsLocked(parserName)
	for _, term := range terms {
		if existing, ok := byNorm[term.TermNorm]; ok {
			if existing.Equal(term) {
				continue
			}
			return errors.New(errors.CodeTermConflict,
				"conflicting synonym term for term norm").
				WithDetail("parser=" + parserName + " term_norm=" + term.TermNorm)
		}
		byNorm[term.TermNorm] = term
		s.indexLocked(parserName, term)
	}
	return nil
}

// Replace overwrites the term stored under (parser, term.TermNorm)
// unconditionally.  Used by curation edits, which deliberately change the id
// sets of an existing term.
func (s *SynonymStore) Replace(parserName string, term *equivalence.SynonymTerm) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNorm := s.normsLocked(parserName)
	if existing, ok := byNorm[term.TermNorm]; ok {
		s.unindexLocked(parserName, existing)
	}
	byNorm[term.TermNorm] = term
	s.indexLocked(parserName, term)
}

// ReplaceParser swaps a parser's entire term set for the given one,
// rebuilding both indices.  Used to commit a curation session's final state
// in one step.
func (s *SynonymStore) ReplaceParser(parserName string, terms map[string]*equivalence.SynonymTerm) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNorm := make(map[string]*equivalence.SynonymTerm, len(terms))
	s.terms[parserName] = byNorm
	delete(s.byID, parserName)
	for norm, term := range terms {
		byNorm[norm] = term
		s.indexLocked(parserName, term)
	}
}

// Get returns the term stored under (parser, termNorm).
func (s *SynonymStore) Get(parserName, termNorm string) (*equivalence.SynonymTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byNorm, ok := s.terms[parserName]
	if !ok {
		return nil, errors.New(errors.CodeParserNotFound, "parser has no synonyms loaded").
			WithDetail("parser=" + parserName)
	}
	term, ok := byNorm[termNorm]
	if !ok {
		return nil, errors.New(errors.CodeTermNotFound, "term norm not found").
			WithDetail("parser=" + parserName + " term_norm=" + termNorm)
	}
	return term, nil
}

// GetByID returns every term of the parser whose id sets span id.
func (s *SynonymStore) GetByID(parserName, id string) []*equivalence.SynonymTerm {
	s.mu.RLock()
	defer s.mu.RUnlock()

	norms := s.byID[parserName][id]
	out := make([]*equivalence.SynonymTerm, 0, len(norms))
	for norm := range norms {
		if term, ok := s.terms[parserName][norm]; ok {
			out = append(out, term)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TermNorm < out[j].TermNorm })
	return out
}

// GetAll returns every term of a parser, keyed by term_norm.  The returned
// map is a copy; the terms themselves are shared immutable values.
func (s *SynonymStore) GetAll(parserName string) map[string]*equivalence.SynonymTerm {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byNorm := s.terms[parserName]
	out := make(map[string]*equivalence.SynonymTerm, len(byNorm))
	for norm, term := range byNorm {
		out[norm] = term
	}
	return out
}

// DropTerm removes the term stored under (parser, termNorm) along with its
// reverse-index entries.
func (s *SynonymStore) DropTerm(parserName, termNorm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNorm, ok := s.terms[parserName]
	if !ok {
		return errors.New(errors.CodeParserNotFound, "parser has no synonyms loaded").
			WithDetail("parser=" + parserName)
	}
	term, ok := byNorm[termNorm]
	if !ok {
		return errors.New(errors.CodeTermNotFound, "term norm not found").
			WithDetail("parser=" + parserName + " term_norm=" + termNorm)
	}
	s.unindexLocked(parserName, term)
	delete(byNorm, termNorm)
	return nil
}

// DropIDFromAllTerms removes id from every term of the parser.  Terms whose
// id sets become empty are dropped entirely.  Each term is updated
// atomically under the store lock: either its new value is stored or it is
// removed, never a half-edited state.  Returns the count of terms modified
// and the count of terms dropped.
func (s *SynonymStore) DropIDFromAllTerms(parserName, id string) (modified, dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNorm := s.terms[parserName]
	for norm := range s.byID[parserName][id] {
		term, ok := byNorm[norm]
		if !ok {
			continue
		}
		s.unindexLocked(parserName, term)
		remaining := term.IDSets.WithoutID(id)
		if remaining.IsEmpty() {
			delete(byNorm, norm)
			dropped++
			continue
		}
		updated := term.ReplaceIDSets(remaining, equivalence.ModifiedByCuration)
		byNorm[norm] = updated
		s.indexLocked(parserName, updated)
		modified++
	}
	return modified, dropped
}

// DropEquivalentIDSet removes one EquivalentIDSet from the term stored under
// (parser, termNorm).  When the removal empties the term, the term itself is
// dropped.
func (s *SynonymStore) DropEquivalentIDSet(parserName, termNorm string, set equivalence.EquivalentIDSet) (ModificationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNorm, ok := s.terms[parserName]
	if !ok {
		return NoModification, errors.New(errors.CodeParserNotFound, "parser has no synonyms loaded").
			WithDetail("parser=" + parserName)
	}
	term, ok := byNorm[termNorm]
	if !ok {
		return NoModification, errors.New(errors.CodeTermNotFound, "term norm not found").
			WithDetail("parser=" + parserName + " term_norm=" + termNorm)
	}
	if !term.IDSets.Contains(set) {
		return NoModification, nil
	}
	s.unindexLocked(parserName, term)
	remaining := term.IDSets.Without(set)
	if remaining.IsEmpty() {
		delete(byNorm, termNorm)
		return TermModified, nil
	}
	updated := term.ReplaceIDSets(remaining, equivalence.ModifiedByCuration)
	byNorm[termNorm] = updated
	s.indexLocked(parserName, updated)
	return IDSetModified, nil
}

// SynonymsForID returns the term norms of the parser whose id sets contain
// id, sorted.  When aggregation strategies are given, only terms aggregated
// by one of them are returned.
func (s *SynonymStore) SynonymsForID(parserName, id string, strategies ...equivalence.AggregationStrategy) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for norm := range s.byID[parserName][id] {
		term, ok := s.terms[parserName][norm]
		if !ok {
			continue
		}
		if len(strategies) > 0 && !strategyIn(term.AggregatedBy, strategies) {
			continue
		}
		out = append(out, norm)
	}
	sort.Strings(out)
	return out
}

// LoadedParsers returns the names of every parser with synonyms loaded,
// sorted.
func (s *SynonymStore) LoadedParsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.terms))
	for parser := range s.terms {
		out = append(out, parser)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of terms loaded for a parser.
func (s *SynonymStore) Count(parserName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms[parserName])
}

func (s *SynonymStore) normsLocked(parserName string) map[string]*equivalence.SynonymTerm {
	byNorm, ok := s.terms[parserName]
	if !ok {
		byNorm = make(map[string]*equivalence.SynonymTerm)
		s.terms[parserName] = byNorm
	}
	return byNorm
}

func (s *SynonymStore) indexLocked(parserName string, term *equivalence.SynonymTerm) {
	idIndex, ok := s.byID[parserName]
	if !ok {
		idIndex = make(map[string]map[string]struct{})
		s.byID[parserName] = idIndex
	}
	for _, id := range term.IDSets.AllIDs() {
		norms, ok := idIndex[id]
		if !ok {
			norms = make(map[string]struct{})
			idIndex[id] = norms
		}
		norms[term.TermNorm] = struct{}{}
	}
}

func (s *SynonymStore) unindexLocked(parserName string, term *equivalence.SynonymTerm) {
	idIndex := s.byID[parserName]
	for _, id := range term.IDSets.AllIDs() {
		norms := idIndex[id]
		delete(norms, term.TermNorm)
		if len(norms) == 0 {
			delete(idIndex, id)
		}
	}
}

func strategyIn(s equivalence.AggregationStrategy, in []equivalence.AggregationStrategy) bool {
	for _, candidate := range in {
		if s == candidate {
			return true
		}
	}
	return false
}
