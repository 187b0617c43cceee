package mapping

import (
	"sort"
	"strings"

	"github.com/turtacn/ontolink/internal/domain/document"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/language"
)

// Strategy selects the best subset of candidate terms for a mention.  The
// runner applies strategies as an ordered fallback chain; the first strategy
// whose filtered set yields any Mapping wins for that mention.
type Strategy interface {
	// Name identifies the strategy in Mapping provenance.
	Name() string

	// Confidence is the tier assigned when the strategy resolves a mention
	// to a single equivalence class.
	Confidence() equivalence.LinkConfidence

	// FilterTerms returns the surviving candidates.  An empty result means
	// the strategy abstains for this mention.
	FilterTerms(mention, mentionNorm string, doc *document.Document, candidates []TermWithMetrics, parserName string) []TermWithMetrics
}

// ExactMatch keeps only candidates flagged as exact dictionary matches.
type ExactMatch struct {
	confidence equivalence.LinkConfidence
}

// NewExactMatch returns the strategy.
func NewExactMatch(confidence equivalence.LinkConfidence) *ExactMatch {
	return &ExactMatch{confidence: confidence}
}

func (s *ExactMatch) Name() string                           { return "ExactMatch" }
func (s *ExactMatch) Confidence() equivalence.LinkConfidence { return s.confidence }

func (s *ExactMatch) FilterTerms(_, _ string, _ *document.Document, candidates []TermWithMetrics, _ string) []TermWithMetrics {
	var out []TermWithMetrics
	for _, c := range candidates {
		if c.ExactMatch {
			out = append(out, c)
		}
	}
	return out
}

// SymbolMatch keeps candidates whose term_norm reconciles with the mention
// symbol-wise: every whitespace token of the side with more tokens must be
// consumed as a substring of the other side, leaving nothing behind.  This is
// what lets compound symbols match their fused forms, e.g. "MAP K8" against
// "MAPK8".
type SymbolMatch struct {
	confidence equivalence.LinkConfidence
}

// NewSymbolMatch returns the strategy.
func NewSymbolMatch(confidence equivalence.LinkConfidence) *SymbolMatch {
	return &SymbolMatch{confidence: confidence}
}

func (s *SymbolMatch) Name() string                           { return "SymbolMatch" }
func (s *SymbolMatch) Confidence() equivalence.LinkConfidence { return s.confidence }

func (s *SymbolMatch) FilterTerms(_, mentionNorm string, _ *document.Document, candidates []TermWithMetrics, _ string) []TermWithMetrics {
	var out []TermWithMetrics
	for _, c := range candidates {
		if symbolsReconcile(mentionNorm, c.Term.TermNorm) {
			out = append(out, c)
		}
	}
	return out
}

// symbolsReconcile tokenizes both strings by whitespace and takes the side
// with more tokens as the query.  Each query token must appear as a substring
// of the other string; its first occurrence is consumed.  True only when the
// residue is whitespace.
func symbolsReconcile(a, b string) bool {
	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)
	longest, shortest := bTokens, a
	if len(aTokens) > len(bTokens) {
		longest, shortest = aTokens, b
	}
	for _, tok := range longest {
		if !strings.Contains(shortest, tok) {
			return false
		}
		shortest = strings.Replace(shortest, tok, "", 1)
	}
	return strings.TrimSpace(shortest) == ""
}

// TermNormIsSubstring keeps the single candidate whose term_norm tokens form
// the longest token subset of the mention's tokens.  A tie at the top length
// means no decision: the result is empty rather than arbitrary.
type TermNormIsSubstring struct {
	confidence equivalence.LinkConfidence
	minLength  int
}

// NewTermNormIsSubstring returns the strategy.  Term norms shorter than
// minLength characters never match, to avoid spurious hits on fragments.
func NewTermNormIsSubstring(confidence equivalence.LinkConfidence, minLength int) *TermNormIsSubstring {
	return &TermNormIsSubstring{confidence: confidence, minLength: minLength}
}

func (s *TermNormIsSubstring) Name() string                           { return "TermNormIsSubstring" }
func (s *TermNormIsSubstring) Confidence() equivalence.LinkConfidence { return s.confidence }

func (s *TermNormIsSubstring) FilterTerms(_, mentionNorm string, _ *document.Document, candidates []TermWithMetrics, _ string) []TermWithMetrics {
	mentionTokens := make(map[string]struct{})
	for _, tok := range strings.Fields(mentionNorm) {
		mentionTokens[tok] = struct{}{}
	}

	byLength := make(map[int][]TermWithMetrics)
	longest := 0
	for _, c := range candidates {
		norm := c.Term.TermNorm
		if len(norm) < s.minLength {
			continue
		}
		if !tokensSubset(strings.Fields(norm), mentionTokens) {
			continue
		}
		byLength[len(norm)] = append(byLength[len(norm)], c)
		if len(norm) > longest {
			longest = len(norm)
		}
	}
	if group := byLength[longest]; len(group) == 1 {
		return group
	}
	return nil
}

func tokensSubset(tokens []string, within map[string]struct{}) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := within[tok]; !ok {
			return false
		}
	}
	return true
}

// StrongMatch keeps candidates whose search score clears a floor threshold
// and sits within a fixed differential of the best observed score.
type StrongMatch struct {
	confidence   equivalence.LinkConfidence
	threshold    float64
	differential float64
	symbolicOnly bool
}

// StrongMatchOption customises a StrongMatch.
type StrongMatchOption func(*StrongMatch)

// SymbolicOnly restricts StrongMatch to symbolic candidates.
func SymbolicOnly() StrongMatchOption {
	return func(s *StrongMatch) { s.symbolicOnly = true }
}

// NewStrongMatch returns the strategy.
func NewStrongMatch(confidence equivalence.LinkConfidence, threshold, differential float64, opts ...StrongMatchOption) *StrongMatch {
	s := &StrongMatch{confidence: confidence, threshold: threshold, differential: differential}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StrongMatch) Name() string                           { return "StrongMatch" }
func (s *StrongMatch) Confidence() equivalence.LinkConfidence { return s.confidence }

func (s *StrongMatch) FilterTerms(_, _ string, _ *document.Document, candidates []TermWithMetrics, _ string) []TermWithMetrics {
	best := 0.0
	eligible := make([]TermWithMetrics, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasScore() {
			continue
		}
		if s.symbolicOnly && !c.Term.IsSymbolic {
			continue
		}
		if c.Score() < s.threshold {
			continue
		}
		eligible = append(eligible, c)
		if c.Score() > best {
			best = c.Score()
		}
	}
	var out []TermWithMetrics
	for _, c := range eligible {
		if best-c.Score() <= s.differential {
			out = append(out, c)
		}
	}
	return out
}

// StrongMatchWithEmbeddingConfirmation runs StrongMatch, deduplicates the
// survivors by their id sets keeping the best-scored representative of each
// group, then requires a boolean embedding-similarity confirmation against
// the raw mention text.
type StrongMatchWithEmbeddingConfirmation struct {
	inner  *StrongMatch
	scorer language.BooleanScorer
}

// NewStrongMatchWithEmbeddingConfirmation returns the strategy.
func NewStrongMatchWithEmbeddingConfirmation(
	confidence equivalence.LinkConfidence,
	threshold, differential float64,
	scorer language.BooleanScorer,
	opts ...StrongMatchOption,
) *StrongMatchWithEmbeddingConfirmation {
	return &StrongMatchWithEmbeddingConfirmation{
		inner:  NewStrongMatch(confidence, threshold, differential, opts...),
		scorer: scorer,
	}
}

func (s *StrongMatchWithEmbeddingConfirmation) Name() string {
	return "StrongMatchWithEmbeddingConfirmation"
}

func (s *StrongMatchWithEmbeddingConfirmation) Confidence() equivalence.LinkConfidence {
	return s.inner.Confidence()
}

func (s *StrongMatchWithEmbeddingConfirmation) FilterTerms(mention, mentionNorm string, doc *document.Document, candidates []TermWithMetrics, parserName string) []TermWithMetrics {
	strong := s.inner.FilterTerms(mention, mentionNorm, doc, candidates, parserName)
	sort.SliceStable(strong, func(i, j int) bool { return strong[i].Score() > strong[j].Score() })

	seen := make(map[string]struct{})
	var out []TermWithMetrics
	for _, c := range strong {
		key := c.Term.IDSets.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		// confirm against a raw surface string, not the normalized form,
		// so case and punctuation reach the scorer
		raw := c.Term.TermNorm
		if len(c.Term.Terms) > 0 {
			raw = c.Term.Terms[0]
		}
		if s.scorer.Similar(raw, mention) {
			out = append(out, c)
		}
	}
	return out
}

// DefinedElsewhereInDocument keeps candidates whose ids already appear among
// the mappings assigned elsewhere in the same document.
type DefinedElsewhereInDocument struct {
	confidence equivalence.LinkConfidence
}

// NewDefinedElsewhereInDocument returns the strategy.
func NewDefinedElsewhereInDocument(confidence equivalence.LinkConfidence) *DefinedElsewhereInDocument {
	return &DefinedElsewhereInDocument{confidence: confidence}
}

func (s *DefinedElsewhereInDocument) Name() string { return "DefinedElsewhereInDocument" }

func (s *DefinedElsewhereInDocument) Confidence() equivalence.LinkConfidence {
	return s.confidence
}

func (s *DefinedElsewhereInDocument) FilterTerms(_, _ string, doc *document.Document, candidates []TermWithMetrics, _ string) []TermWithMetrics {
	mapped := doc.MappedIDs()
	var out []TermWithMetrics
	for _, c := range candidates {
		if anyIDMapped(c.Term.IDSets, mapped) {
			out = append(out, c)
		}
	}
	return out
}

func anyIDMapped(sets equivalence.AssociatedIDSets, mapped map[equivalence.IDAndSource]struct{}) bool {
	for _, set := range sets.Sets() {
		for _, pair := range set.Pairs() {
			if _, ok := mapped[pair]; ok {
				return true
			}
		}
	}
	return false
}
