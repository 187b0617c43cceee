package language

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// StringScorer scores the similarity of two labels on a 0..100 scale.  Used
// during id grouping and by the strong-match confirmation step.
type StringScorer interface {
	Score(reference, query string) float64
}

// BooleanScorer gives a yes/no similarity verdict for a pair of strings.
type BooleanScorer interface {
	Similar(reference, query string) bool
}

// TokenSetRatio scores two strings by comparing their token sets: the shared
// token core plus each side's remainder, taking the best pairwise ratio.
// Token order and duplicate tokens are ignored, which suits ontology labels
// where word order varies freely ("diabetes, type I" vs "type I diabetes").
type TokenSetRatio struct{}

// NewTokenSetRatio returns the token-set scorer.
func NewTokenSetRatio() *TokenSetRatio { return &TokenSetRatio{} }

// Score implements StringScorer.
func (t *TokenSetRatio) Score(reference, query string) float64 {
	refTokens := tokenSet(reference)
	queryTokens := tokenSet(query)
	if len(refTokens) == 0 || len(queryTokens) == 0 {
		return 0
	}

	shared := lo.Intersect(refTokens, queryTokens)
	refOnly := lo.Without(refTokens, queryTokens...)
	queryOnly := lo.Without(queryTokens, refTokens...)

	base := strings.Join(shared, " ")
	refJoined := strings.TrimSpace(base + " " + strings.Join(refOnly, " "))
	queryJoined := strings.TrimSpace(base + " " + strings.Join(queryOnly, " "))

	best := levenshteinRatio(base, refJoined)
	if r := levenshteinRatio(base, queryJoined); r > best {
		best = r
	}
	if r := levenshteinRatio(refJoined, queryJoined); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) []string {
	tokens := lo.Uniq(strings.Fields(strings.ToLower(s)))
	sort.Strings(tokens)
	return tokens
}

// levenshteinRatio maps edit distance to a 0..100 similarity.
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	dist := levenshtein(ra, rb)
	return 100 * float64(total-2*dist) / float64(total)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// ThresholdScorer adapts a StringScorer into a BooleanScorer by applying a
// fixed similarity threshold.
type ThresholdScorer struct {
	scorer    StringScorer
	threshold float64
}

// NewThresholdScorer wraps scorer with the given threshold.
func NewThresholdScorer(scorer StringScorer, threshold float64) *ThresholdScorer {
	return &ThresholdScorer{scorer: scorer, threshold: threshold}
}

// Similar implements BooleanScorer.
func (t *ThresholdScorer) Similar(reference, query string) bool {
	return t.scorer.Score(reference, query) >= t.threshold
}
