// Package language provides the string-level collaborators of the linking
// engine: synonym normalization, symbolic classification and string
// similarity scoring.  Everything here is deterministic and total; the same
// input always yields the same output.
package language

import (
	"strings"
	"unicode"
)

// Normalizer converts raw synonym strings into canonical term norms and
// classifies them as symbolic or natural-language.  Implementations may vary
// behaviour by entity class.
type Normalizer interface {
	// Normalize returns the canonical term_norm of a raw synonym.
	Normalize(raw string, entityClass string) string

	// ClassifySymbolic reports whether the raw synonym looks like a code or
	// acronym rather than a descriptive phrase.
	ClassifySymbolic(raw string, entityClass string) bool
}

// greekLetters are expanded to their names before case folding, so "TNFα"
// and "TNF alpha" normalize to the same term norm.
var greekLetters = map[rune]string{
	'α': "alpha", 'β': "beta", 'γ': "gamma", 'δ': "delta",
	'ε': "epsilon", 'ζ': "zeta", 'η': "eta", 'θ': "theta",
	'ι': "iota", 'κ': "kappa", 'λ': "lambda", 'μ': "mu",
	'ν': "nu", 'ξ': "xi", 'π': "pi", 'ρ': "rho",
	'σ': "sigma", 'τ': "tau", 'υ': "upsilon", 'φ': "phi",
	'χ': "chi", 'ψ': "psi", 'ω': "omega",
	'Α': "alpha", 'Β': "beta", 'Γ': "gamma", 'Δ': "delta",
	'Ε': "epsilon", 'Ζ': "zeta", 'Η': "eta", 'Θ': "theta",
	'Ι': "iota", 'Κ': "kappa", 'Λ': "lambda", 'Μ': "mu",
	'Ν': "nu", 'Ξ': "xi", 'Π': "pi", 'Ρ': "rho",
	'Σ': "sigma", 'Τ': "tau", 'Υ': "upsilon", 'Φ': "phi",
	'Χ': "chi", 'Ψ': "psi", 'Ω': "omega",
}

// DefaultNormalizer is the standard normalizer: greek-letter expansion,
// punctuation folding, case folding to upper, whitespace collapsing.  The
// entity class is accepted for interface compatibility but does not change
// the default behaviour.
type DefaultNormalizer struct{}

// NewDefaultNormalizer returns the standard normalizer.
func NewDefaultNormalizer() *DefaultNormalizer { return &DefaultNormalizer{} }

// Normalize implements Normalizer.
func (n *DefaultNormalizer) Normalize(raw string, _ string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case greekLetters[r] != "":
			b.WriteByte(' ')
			b.WriteString(greekLetters[r])
			b.WriteByte(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			// punctuation, separators and symbols all fold to a space
			b.WriteByte(' ')
		}
	}
	return strings.ToUpper(strings.Join(strings.Fields(b.String()), " "))
}

// ClassifySymbolic implements Normalizer.  A synonym classifies as symbolic
// when every whitespace token looks like a code: short, or containing a
// digit, or fully uppercase.  Multi-token phrases with any descriptive word
// are non-symbolic.
func (n *DefaultNormalizer) ClassifySymbolic(raw string, _ string) bool {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !tokenIsSymbolic(tok) {
			return false
		}
	}
	return true
}

func tokenIsSymbolic(tok string) bool {
	runes := []rune(tok)
	if len(runes) <= 3 {
		return true
	}
	hasDigit := false
	hasLower := false
	for _, r := range runes {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	if hasDigit {
		return true
	}
	return !hasLower
}
