package equivalence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSynonymTerm_NormalizesSlices(t *testing.T) {
	idSets := NewAssociatedIDSets(MustNewEquivalentIDSet(pair("HGNC:11998", "HGNC")))
	term := NewSynonymTerm(
		"TP53",
		[]string{"tp53", "Tp53", "tp53"},
		true,
		[]string{"exactSyn", "abbrev", "exactSyn"},
		idSets,
		"hgnc_parser",
		Unambiguous,
	)

	assert.Equal(t, []string{"Tp53", "tp53"}, term.Terms)
	assert.Equal(t, []string{"abbrev", "exactSyn"}, term.MappingTypes)
	assert.False(t, term.IsAmbiguous())
}

func TestSynonymTerm_IsAmbiguous(t *testing.T) {
	ambiguous := NewSynonymTerm(
		"EGFR",
		[]string{"EGFR"},
		true,
		[]string{"abbrev"},
		NewAssociatedIDSets(
			MustNewEquivalentIDSet(pair("HGNC:3236", "HGNC")),
			MustNewEquivalentIDSet(pair("HGNC:3467", "HGNC")),
		),
		"hgnc_parser",
		NoStrategy,
	)
	assert.True(t, ambiguous.IsAmbiguous())
}

func TestSynonymTerm_ReplaceIDSets(t *testing.T) {
	original := NewSynonymTerm(
		"EGFR",
		[]string{"EGFR"},
		true,
		[]string{"abbrev"},
		NewAssociatedIDSets(
			MustNewEquivalentIDSet(pair("HGNC:3236", "HGNC")),
			MustNewEquivalentIDSet(pair("HGNC:3467", "HGNC")),
		),
		"hgnc_parser",
		NoStrategy,
	)

	narrowed := NewAssociatedIDSets(MustNewEquivalentIDSet(pair("HGNC:3236", "HGNC")))
	updated := original.ReplaceIDSets(narrowed, ModifiedByCuration)

	assert.Equal(t, ModifiedByCuration, updated.AggregatedBy)
	assert.Equal(t, 1, updated.IDSets.Size())
	assert.Equal(t, original.TermNorm, updated.TermNorm)

	// receiver untouched
	assert.Equal(t, NoStrategy, original.AggregatedBy)
	assert.Equal(t, 2, original.IDSets.Size())
}

func TestAggregationStrategy_IsValid(t *testing.T) {
	for _, s := range []AggregationStrategy{
		NoStrategy, Unambiguous, MergedAsNonSymbolic, ResolvedBySimilarity, Custom, ModifiedByCuration,
	} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, AggregationStrategy("BOGUS").IsValid())
}

func TestLinkConfidence_IsValid(t *testing.T) {
	assert.True(t, HighlyLikely.IsValid())
	assert.True(t, Probable.IsValid())
	assert.True(t, Ambiguous.IsValid())
	assert.False(t, LinkConfidence("certain").IsValid())
}
