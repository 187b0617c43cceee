package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultNormalizer_Normalize(t *testing.T) {
	n := NewDefaultNormalizer()

	tests := []struct {
		raw  string
		want string
	}{
		{"tp53", "TP53"},
		{"diabetes, type I", "DIABETES TYPE I"},
		{"non-small cell lung cancer", "NON SMALL CELL LUNG CANCER"},
		{"TNFα", "TNF ALPHA"},
		{"IL-6", "IL 6"},
		{"  spaced   out  ", "SPACED OUT"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw, "gene"))
		})
	}
}

func TestDefaultNormalizer_Deterministic(t *testing.T) {
	n := NewDefaultNormalizer()
	first := n.Normalize("estrogen receptor α", "gene")
	second := n.Normalize("estrogen receptor α", "gene")
	assert.Equal(t, first, second)
}

func TestDefaultNormalizer_ClassifySymbolic(t *testing.T) {
	n := NewDefaultNormalizer()

	tests := []struct {
		raw  string
		want bool
	}{
		{"TP53", true},
		{"EGFR", true},
		{"IL6", true},
		{"BRCA1", true},
		{"MAPK8", true},
		{"abc", true}, // short tokens count as codes regardless of case
		{"breast cancer", false},
		{"epidermal growth factor receptor", false},
		{"Type 2 diabetes", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, n.ClassifySymbolic(tt.raw, "gene"))
		})
	}
}

func TestTokenSetRatio(t *testing.T) {
	s := NewTokenSetRatio()

	// identical strings max out
	assert.InDelta(t, 100, s.Score("breast cancer", "breast cancer"), 1e-9)

	// word order and duplicates do not matter
	assert.InDelta(t, 100, s.Score("type I diabetes", "diabetes type I"), 1e-9)

	// unrelated strings score low
	assert.Less(t, s.Score("breast cancer", "renal failure"), 50.0)

	// overlap scores between the extremes
	partial := s.Score("lung cancer", "lung carcinoma")
	assert.Greater(t, partial, 50.0)
	assert.Less(t, partial, 100.0)

	// empty input
	assert.Zero(t, s.Score("", "anything"))
}

func TestThresholdScorer(t *testing.T) {
	s := NewThresholdScorer(NewTokenSetRatio(), 90)
	assert.True(t, s.Similar("type I diabetes", "diabetes type I"))
	assert.False(t, s.Similar("breast cancer", "renal failure"))
}
