package equivalence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ontolink/pkg/errors"
)

func pair(id, source string) IDAndSource {
	return IDAndSource{ID: id, Source: source}
}

func TestNewEquivalentIDSet_DedupesAndSorts(t *testing.T) {
	s, err := NewEquivalentIDSet(
		pair("MONDO:0005148", "MONDO"),
		pair("DOID:9352", "DOID"),
		pair("MONDO:0005148", "MONDO"),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, []string{"DOID:9352", "MONDO:0005148"}, s.IDs())
	assert.True(t, s.Contains("DOID:9352"))
	assert.False(t, s.Contains("DOID:0000"))

	source, ok := s.SourceOf("MONDO:0005148")
	require.True(t, ok)
	assert.Equal(t, "MONDO", source)
}

func TestNewEquivalentIDSet_Empty(t *testing.T) {
	_, err := NewEquivalentIDSet()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeEmptyIDSet))
}

func TestEquivalentIDSet_EqualityByKey(t *testing.T) {
	a := MustNewEquivalentIDSet(pair("A", "src"), pair("B", "src"))
	b := MustNewEquivalentIDSet(pair("B", "src"), pair("A", "src"))
	c := MustNewEquivalentIDSet(pair("A", "src"))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
}

func TestEquivalentIDSet_Without(t *testing.T) {
	s := MustNewEquivalentIDSet(pair("A", "src"), pair("B", "src"))

	reduced, ok := s.Without("A")
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, reduced.IDs())

	same, ok := s.Without("Z")
	require.True(t, ok)
	assert.True(t, same.Equal(s))

	_, ok = reduced.Without("B")
	assert.False(t, ok)
}

func TestEquivalentIDSet_JSONRoundTrip(t *testing.T) {
	s := MustNewEquivalentIDSet(pair("HGNC:11998", "HGNC"), pair("ENSG00000141510", "ENSEMBL"))

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded EquivalentIDSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, s.Equal(decoded))
}

func TestNewAssociatedIDSets_DedupesByKey(t *testing.T) {
	a := MustNewEquivalentIDSet(pair("A", "src"))
	b := MustNewEquivalentIDSet(pair("B", "src"))
	aAgain := MustNewEquivalentIDSet(pair("A", "src"))

	sets := NewAssociatedIDSets(a, b, aAgain, EquivalentIDSet{})
	assert.Equal(t, 2, sets.Size())
	assert.True(t, sets.Contains(a))
	assert.True(t, sets.Contains(b))

	reordered := NewAssociatedIDSets(b, a)
	assert.True(t, sets.Equal(reordered))
}

func TestAssociatedIDSets_SubsetOf(t *testing.T) {
	a := MustNewEquivalentIDSet(pair("A", "src"))
	b := MustNewEquivalentIDSet(pair("B", "src"))

	small := NewAssociatedIDSets(a)
	big := NewAssociatedIDSets(a, b)

	assert.True(t, small.SubsetOf(big))
	assert.False(t, big.SubsetOf(small))
	assert.True(t, big.SubsetOf(big))
}

func TestAssociatedIDSets_AllIDs(t *testing.T) {
	sets := NewAssociatedIDSets(
		MustNewEquivalentIDSet(pair("C", "src"), pair("A", "src")),
		MustNewEquivalentIDSet(pair("B", "src")),
	)
	assert.Equal(t, []string{"A", "B", "C"}, sets.AllIDs())
	assert.True(t, sets.ContainsAllIDs([]string{"A", "C"}))
	assert.False(t, sets.ContainsAllIDs([]string{"A", "Z"}))
}

func TestAssociatedIDSets_WithoutID(t *testing.T) {
	sets := NewAssociatedIDSets(
		MustNewEquivalentIDSet(pair("A", "src"), pair("B", "src")),
		MustNewEquivalentIDSet(pair("C", "src")),
	)

	reduced := sets.WithoutID("C")
	assert.Equal(t, 1, reduced.Size())
	assert.Equal(t, []string{"A", "B"}, reduced.AllIDs())

	emptied := reduced.WithoutID("A").WithoutID("B")
	assert.True(t, emptied.IsEmpty())
}

func TestAssociatedIDSets_Without(t *testing.T) {
	a := MustNewEquivalentIDSet(pair("A", "src"))
	b := MustNewEquivalentIDSet(pair("B", "src"))
	sets := NewAssociatedIDSets(a, b)

	remaining := sets.Without(a)
	assert.Equal(t, 1, remaining.Size())
	assert.True(t, remaining.Contains(b))
}

func TestCheckDisjoint(t *testing.T) {
	ok := NewAssociatedIDSets(
		MustNewEquivalentIDSet(pair("A", "src")),
		MustNewEquivalentIDSet(pair("B", "src")),
	)
	require.NoError(t, CheckDisjoint(ok))

	overlapping := NewAssociatedIDSets(
		MustNewEquivalentIDSet(pair("A", "src"), pair("B", "src")),
		MustNewEquivalentIDSet(pair("B", "other")),
	)
	err := CheckDisjoint(overlapping)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDisjointnessViolation))
	assert.True(t, errors.IsDataIntegrity(err))
}
