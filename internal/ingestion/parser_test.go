package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ontolink/internal/database"
	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/language"
	"github.com/turtacn/ontolink/pkg/errors"
)

// pairScorer returns fixed scores for known label pairs, 0 otherwise.
type pairScorer struct {
	scores map[[2]string]float64
}

func (s *pairScorer) Score(reference, query string) float64 {
	if v, ok := s.scores[[2]string{reference, query}]; ok {
		return v
	}
	return s.scores[[2]string{query, reference}]
}

func newParser(t *testing.T, rows []Row, scorer language.StringScorer, threshold float64, opts ...ParserOption) *Parser {
	t.Helper()
	return NewParser(
		"test_parser", "TEST", "disease",
		NewStaticSource(rows),
		language.NewDefaultNormalizer(),
		scorer,
		threshold,
		logging.NewNop(),
		opts...,
	)
}

func TestTSVSource(t *testing.T) {
	input := "id\tdefault_label\tsynonym\tmapping_type\n" +
		"MONDO:1\tdiabetes\tdiabetes mellitus\texactSyn\n" +
		"MONDO:1\tdiabetes\tDM\tabbrev\n"

	rows, err := NewTSVSource(strings.NewReader(input)).Rows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{ID: "MONDO:1", DefaultLabel: "diabetes", Synonym: "diabetes mellitus", MappingType: "exactSyn"}, rows[0])
}

func TestTSVSource_Malformed(t *testing.T) {
	_, err := NewTSVSource(strings.NewReader("MONDO:1\tonly two\n")).Rows()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeRowSourceFailed))
}

func TestJSONLinesSource(t *testing.T) {
	input := `{"id": "MONDO:1", "default_label": "diabetes", "synonym": "DM", "mapping_type": "abbrev"}
{"id": "MONDO:2", "default_label": "asthma", "synonym": "asthma", "mapping_type": "exactSyn"}`

	rows, err := NewJSONLinesSource(strings.NewReader(input)).Rows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "asthma", rows[1].DefaultLabel)

	_, err = NewJSONLinesSource(strings.NewReader("{bad")).Rows()
	assert.True(t, errors.IsCode(err, errors.CodeRowSourceFailed))
}

func TestGrouper_NoScorer(t *testing.T) {
	grouper := NewGrouper(nil, 0)
	ids := []equivalence.IDAndSource{
		{ID: "B", Source: "TEST"},
		{ID: "A", Source: "TEST"},
		{ID: "A", Source: "TEST"},
	}

	sets, strategy, err := grouper.ScoreAndGroupIDs(ids, nil, true, nil)
	require.NoError(t, err)
	assert.Equal(t, equivalence.NoStrategy, strategy)
	assert.Equal(t, 2, sets.Size())
}

func TestGrouper_SingleID(t *testing.T) {
	grouper := NewGrouper(&pairScorer{}, 0.7)
	sets, strategy, err := grouper.ScoreAndGroupIDs(
		[]equivalence.IDAndSource{{ID: "A", Source: "TEST"}}, nil, true, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, equivalence.Unambiguous, strategy)
	assert.Equal(t, 1, sets.Size())
}

func TestGrouper_NonSymbolicMergesAll(t *testing.T) {
	grouper := NewGrouper(&pairScorer{}, 0.7)
	sets, strategy, err := grouper.ScoreAndGroupIDs(
		[]equivalence.IDAndSource{
			{ID: "A", Source: "TEST"},
			{ID: "B", Source: "TEST"},
		},
		map[string]string{"A": "Foo", "B": "Bar"},
		false, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, equivalence.MergedAsNonSymbolic, strategy)
	require.Equal(t, 1, sets.Size())
	assert.Equal(t, []string{"A", "B"}, sets.AllIDs())
}

func TestGrouper_EmptyIDs(t *testing.T) {
	grouper := NewGrouper(nil, 0)
	_, _, err := grouper.ScoreAndGroupIDs(nil, nil, true, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeEmptyIDSet))
}

func TestOneIDPerSet(t *testing.T) {
	sets, strategy, err := OneIDPerSet(
		[]equivalence.IDAndSource{
			{ID: "A", Source: "TEST"},
			{ID: "B", Source: "TEST"},
		}, nil, true, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, equivalence.Custom, strategy)
	assert.Equal(t, 2, sets.Size())
}

func TestResolveSynonyms_SimilarLabelsMerge(t *testing.T) {
	rows := []Row{
		{ID: "A", DefaultLabel: "Foo", Synonym: "foo", MappingType: "t"},
		{ID: "B", DefaultLabel: "Foo2", Synonym: "foo", MappingType: "t"},
	}
	scorer := &pairScorer{scores: map[[2]string]float64{{"Foo", "Foo2"}: 0.9}}
	parser := newParser(t, rows, scorer, 0.7)

	terms, err := parser.ResolveSynonyms(rows)
	require.NoError(t, err)
	require.Len(t, terms, 1)

	term, ok := terms["FOO"]
	require.True(t, ok)
	assert.Equal(t, equivalence.ResolvedBySimilarity, term.AggregatedBy)
	require.Equal(t, 1, term.IDSets.Size())
	assert.Equal(t, []string{"A", "B"}, term.IDSets.AllIDs())
}

func TestResolveSynonyms_DissimilarLabelsSplit(t *testing.T) {
	rows := []Row{
		{ID: "A", DefaultLabel: "Foo", Synonym: "foo", MappingType: "t"},
		{ID: "B", DefaultLabel: "Foo2", Synonym: "foo", MappingType: "t"},
	}
	scorer := &pairScorer{scores: map[[2]string]float64{{"Foo", "Foo2"}: 0.1}}
	parser := newParser(t, rows, scorer, 0.7)

	terms, err := parser.ResolveSynonyms(rows)
	require.NoError(t, err)
	require.Len(t, terms, 1)

	term := terms["FOO"]
	require.Equal(t, 2, term.IDSets.Size())
	for _, set := range term.IDSets.Sets() {
		assert.Equal(t, 1, set.Size())
	}
}

func TestResolveSynonyms_SymbolicRequiresAllSymbolic(t *testing.T) {
	// one descriptive synonym in the group forces non-symbolic grouping
	rows := []Row{
		{ID: "A", DefaultLabel: "Foo", Synonym: "chronic disease", MappingType: "t"},
		{ID: "B", DefaultLabel: "Bar", Synonym: "Chronic Disease", MappingType: "t"},
	}
	parser := newParser(t, rows, &pairScorer{}, 0.7)

	terms, err := parser.ResolveSynonyms(rows)
	require.NoError(t, err)
	term := terms["CHRONIC DISEASE"]
	require.NotNil(t, term)
	assert.False(t, term.IsSymbolic)
	assert.Equal(t, equivalence.MergedAsNonSymbolic, term.AggregatedBy)
}

func TestPopulateStores(t *testing.T) {
	rows := []Row{
		{ID: "MONDO:1", DefaultLabel: "diabetes", Synonym: "diabetes mellitus", MappingType: "exactSyn"},
		{ID: "MONDO:1", DefaultLabel: "diabetes", Synonym: "DM", MappingType: "abbrev"},
		{ID: "MONDO:2", DefaultLabel: "asthma", Synonym: "asthma", MappingType: "exactSyn"},
	}
	parser := newParser(t, rows, &pairScorer{}, 0.7)

	synonyms := database.NewSynonymStore()
	metadata := database.NewMetadataStore()
	require.NoError(t, parser.PopulateStores(synonyms, metadata))

	assert.Equal(t, 3, synonyms.Count("test_parser"))
	assert.Equal(t, "diabetes", metadata.DefaultLabel("test_parser", "MONDO:1"))

	term, err := synonyms.Get("test_parser", "DIABETES MELLITUS")
	require.NoError(t, err)
	assert.Equal(t, equivalence.Unambiguous, term.AggregatedBy)
	assert.False(t, term.IsSymbolic)

	byID := synonyms.GetByID("test_parser", "MONDO:1")
	assert.Len(t, byID, 2)
}

func TestExtractMetadata_LabelDefaultsToID(t *testing.T) {
	parser := newParser(t, nil, nil, 0)
	meta := parser.ExtractMetadata([]Row{
		{ID: "MONDO:1", Synonym: "x", MappingType: "t"},
		{ID: "MONDO:2", DefaultLabel: "asthma", Synonym: "y", MappingType: "t"},
	})
	assert.Equal(t, "MONDO:1", meta["MONDO:1"][database.DefaultLabelKey])
	assert.Equal(t, "asthma", meta["MONDO:2"][database.DefaultLabelKey])
}
