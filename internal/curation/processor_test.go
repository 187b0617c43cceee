package curation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ontolink/internal/language"
	"github.com/turtacn/ontolink/pkg/errors"
)

func idSet(ids ...string) equivalence.EquivalentIDSet {
	pairs := make([]equivalence.IDAndSource, len(ids))
	for i, id := range ids {
		pairs[i] = equivalence.IDAndSource{ID: id, Source: "TEST"}
	}
	return equivalence.MustNewEquivalentIDSet(pairs...)
}

func term(norm string, sets ...equivalence.EquivalentIDSet) *equivalence.SynonymTerm {
	return equivalence.NewSynonymTerm(
		norm,
		[]string{strings.ToLower(norm)},
		true,
		[]string{"test"},
		equivalence.NewAssociatedIDSets(sets...),
		"test_parser",
		equivalence.Unambiguous,
	)
}

func newProcessor(terms ...*equivalence.SynonymTerm) *Processor {
	byNorm := make(map[string]*equivalence.SynonymTerm, len(terms))
	for _, t := range terms {
		byNorm[t.TermNorm] = t
	}
	return NewProcessor(
		"test_parser", "disease",
		byNorm,
		language.NewDefaultNormalizer(),
		logging.NewNop(),
	)
}

func addCuration(id, synonym string, behaviour equivalence.Behaviour, sets ...equivalence.EquivalentIDSet) *equivalence.Curation {
	target := equivalence.NewAssociatedIDSets(sets...)
	return &equivalence.Curation{
		ID:             id,
		CuratedSynonym: synonym,
		EntityClass:    "disease",
		Actions:        []equivalence.CurationAction{{Behaviour: behaviour, IDSets: &target}},
	}
}

func TestProcess_DropTermForLinking(t *testing.T) {
	p := newProcessor(term("FOO", idSet("A")))
	curation := &equivalence.Curation{
		ID:             "c1",
		CuratedSynonym: "foo",
		EntityClass:    "disease",
		Actions:        []equivalence.CurationAction{{Behaviour: equivalence.DropTermForLinking}},
	}

	require.NoError(t, p.Process([]*equivalence.Curation{curation}, nil))
	_, terms := p.ExportNERCurationsAndFinalTerms()
	assert.NotContains(t, terms, "FOO")
}

func TestProcess_DropTermForLinking_MissingTermIsNotFatal(t *testing.T) {
	p := newProcessor()
	curation := &equivalence.Curation{
		ID:             "c1",
		CuratedSynonym: "ghost",
		EntityClass:    "disease",
		Actions:        []equivalence.CurationAction{{Behaviour: equivalence.DropTermForLinking}},
	}
	assert.NoError(t, p.Process([]*equivalence.Curation{curation}, nil))
}

func TestProcess_DropIDSetFromTerm(t *testing.T) {
	first := idSet("A")
	second := idSet("B")
	p := newProcessor(term("FOO", first, second))

	require.NoError(t, p.Process([]*equivalence.Curation{
		addCuration("c1", "foo", equivalence.DropIDSetFromTerm, first),
	}, nil))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	foo := terms["FOO"]
	require.NotNil(t, foo)
	assert.Equal(t, []string{"B"}, foo.IDSets.AllIDs())
	assert.Equal(t, equivalence.ModifiedByCuration, foo.AggregatedBy)
}

func TestProcess_DropIDSetFromTerm_StatsCountOnlyEdits(t *testing.T) {
	first := idSet("A")
	second := idSet("B")
	p := newProcessor(term("FOO", first, second))

	// one drop edits FOO, the other names a term that does not exist
	require.NoError(t, p.Process([]*equivalence.Curation{
		addCuration("c1", "foo", equivalence.DropIDSetFromTerm, first),
		addCuration("c2", "ghost", equivalence.DropIDSetFromTerm, second),
	}, nil))

	applied := p.Stats().Applied[equivalence.DropIDSetFromTerm.String()]
	assert.Equal(t, 1, applied)
}

func TestProcess_DropLastIDSetDropsTerm(t *testing.T) {
	only := idSet("A")
	p := newProcessor(term("FOO", only))

	require.NoError(t, p.Process([]*equivalence.Curation{
		addCuration("c1", "foo", equivalence.DropIDSetFromTerm, only),
	}, nil))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	assert.NotContains(t, terms, "FOO")
}

func TestProcess_AddForLinkingOnly_NewTerm(t *testing.T) {
	p := newProcessor()

	require.NoError(t, p.Process([]*equivalence.Curation{
		addCuration("c1", "brand new synonym", equivalence.AddForLinkingOnly, idSet("A")),
	}, nil))

	eligible, terms := p.ExportNERCurationsAndFinalTerms()
	assert.Empty(t, eligible)

	added := terms["BRAND NEW SYNONYM"]
	require.NotNil(t, added)
	assert.Equal(t, equivalence.ModifiedByCuration, added.AggregatedBy)
	assert.Equal(t, []string{"A"}, added.IDSets.AllIDs())
}

func TestProcess_AddForNERAndLinking_MarksEligible(t *testing.T) {
	p := newProcessor()

	curation := addCuration("c1", "new synonym", equivalence.AddForNERAndLinking, idSet("A"))
	require.NoError(t, p.Process([]*equivalence.Curation{curation}, nil))

	eligible, terms := p.ExportNERCurationsAndFinalTerms()
	require.Len(t, eligible, 1)
	assert.Equal(t, "c1", eligible[0].ID)
	assert.Contains(t, terms, "NEW SYNONYM")
}

func TestProcess_AddIsIdempotent(t *testing.T) {
	p := newProcessor(term("FOO", idSet("A"), idSet("B")))

	// subset of the existing term's ids: no-op both times
	curation := addCuration("c1", "foo", equivalence.AddForLinkingOnly, idSet("A"))
	require.NoError(t, p.Process([]*equivalence.Curation{curation}, nil))
	require.NoError(t, p.Process([]*equivalence.Curation{curation}, nil))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	assert.Equal(t, 2, terms["FOO"].IDSets.Size())
}

func TestProcess_AddCollisionWithDisjointIDsIsFatal(t *testing.T) {
	p := newProcessor(term("FOO", idSet("A")))

	err := p.Process([]*equivalence.Curation{
		addCuration("c1", "foo", equivalence.AddForLinkingOnly, idSet("Z")),
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTermConflict))
}

func TestProcess_AddReusesSmallestCoveringIDSets(t *testing.T) {
	// two existing groupings cover id A; the smaller one must be reused
	p := newProcessor(
		term("BIG", idSet("A"), idSet("B")),
		term("SMALL", idSet("A")),
	)

	require.NoError(t, p.Process([]*equivalence.Curation{
		addCuration("c1", "another name", equivalence.AddForLinkingOnly, idSet("A")),
	}, nil))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	added := terms["ANOTHER NAME"]
	require.NotNil(t, added)
	assert.Equal(t, 1, added.IDSets.Size())
	assert.True(t, added.IDSets.Equal(terms["SMALL"].IDSets))
}

func TestProcess_AddSynthesizesOneSetPerID(t *testing.T) {
	p := newProcessor()

	// no existing grouping covers A and B together: maximally disambiguated
	require.NoError(t, p.Process([]*equivalence.Curation{
		addCuration("c1", "fresh", equivalence.AddForLinkingOnly, idSet("A", "B")),
	}, nil))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	added := terms["FRESH"]
	require.NotNil(t, added)
	assert.Equal(t, 2, added.IDSets.Size())
}

func TestProcess_ConflictingAddsBothExcluded(t *testing.T) {
	p := newProcessor()

	first := addCuration("c1", "shared synonym", equivalence.AddForLinkingOnly, idSet("A"))
	second := addCuration("c2", "Shared Synonym", equivalence.AddForLinkingOnly, idSet("B"))

	require.NoError(t, p.Process([]*equivalence.Curation{first, second}, nil))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	assert.NotContains(t, terms, "SHARED SYNONYM")
}

func TestProcess_DuplicateAddsAreNotConflicting(t *testing.T) {
	p := newProcessor()

	first := addCuration("c1", "shared synonym", equivalence.AddForLinkingOnly, idSet("A"))
	second := addCuration("c2", "Shared Synonym", equivalence.AddForLinkingOnly, idSet("A"))

	require.NoError(t, p.Process([]*equivalence.Curation{first, second}, nil))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	assert.Contains(t, terms, "SHARED SYNONYM")
}

func TestProcess_InheritFromSourceTerm(t *testing.T) {
	p := newProcessor(term("FOO", idSet("A")))

	inherited := &equivalence.Curation{
		ID:             "c1",
		CuratedSynonym: "F.O.O.",
		EntityClass:    "disease",
		SourceTerm:     "foo",
		Actions:        []equivalence.CurationAction{{Behaviour: equivalence.InheritFromSourceTerm}},
	}
	require.NoError(t, p.Process([]*equivalence.Curation{inherited}, nil))

	eligible, _ := p.ExportNERCurationsAndFinalTerms()
	require.Len(t, eligible, 1)
	assert.Equal(t, "c1", eligible[0].ID)
}

func TestProcess_InheritMissingSourceDiscarded(t *testing.T) {
	p := newProcessor()

	inherited := &equivalence.Curation{
		ID:             "c1",
		CuratedSynonym: "F.O.O.",
		EntityClass:    "disease",
		SourceTerm:     "ghost",
		Actions:        []equivalence.CurationAction{{Behaviour: equivalence.InheritFromSourceTerm}},
	}
	require.NoError(t, p.Process([]*equivalence.Curation{inherited}, nil))

	eligible, _ := p.ExportNERCurationsAndFinalTerms()
	assert.Empty(t, eligible)
}

func TestProcess_InheritedSeesSourceState(t *testing.T) {
	// the inherited curation's source term is created by another curation in
	// the same batch; source-term-dependent curations run last
	p := newProcessor()

	add := addCuration("c1", "parent synonym", equivalence.AddForNERAndLinking, idSet("A"))
	inherited := &equivalence.Curation{
		ID:             "c2",
		CuratedSynonym: "kid synonym",
		EntityClass:    "disease",
		SourceTerm:     "parent synonym",
		Actions:        []equivalence.CurationAction{{Behaviour: equivalence.InheritFromSourceTerm}},
	}

	require.NoError(t, p.Process([]*equivalence.Curation{inherited, add}, nil))

	eligible, _ := p.ExportNERCurationsAndFinalTerms()
	require.Len(t, eligible, 2)
}

func TestProcess_GlobalIDDrop(t *testing.T) {
	p := newProcessor(
		term("SHARED", idSet("A", "B")),
		term("ONLY", idSet("A")),
	)

	global := &equivalence.GlobalParserActions{Actions: []equivalence.GlobalAction{{
		Behaviour:         equivalence.DropIDsFromParser,
		ParserToTargetIDs: map[string][]string{"test_parser": {"A"}},
	}}}
	require.NoError(t, p.Process(nil, global))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	assert.NotContains(t, terms, "ONLY")
	require.Contains(t, terms, "SHARED")
	assert.Equal(t, []string{"B"}, terms["SHARED"].IDSets.AllIDs())
}

func TestProcess_GlobalDropNarrowsCurations(t *testing.T) {
	p := newProcessor(term("FOO", idSet("B")))

	curation := addCuration("c1", "fresh synonym", equivalence.AddForLinkingOnly, idSet("A"), idSet("B"))
	global := &equivalence.GlobalParserActions{Actions: []equivalence.GlobalAction{{
		Behaviour:         equivalence.DropIDsFromParser,
		ParserToTargetIDs: map[string][]string{"test_parser": {"A"}},
	}}}

	require.NoError(t, p.Process([]*equivalence.Curation{curation}, global))

	_, terms := p.ExportNERCurationsAndFinalTerms()
	added := terms["FRESH SYNONYM"]
	require.NotNil(t, added)
	assert.Equal(t, []string{"B"}, added.IDSets.AllIDs())
}

func TestProcess_GlobalDropDiscardsEmptiedCurations(t *testing.T) {
	p := newProcessor()

	curation := addCuration("c1", "fresh synonym", equivalence.AddForNERAndLinking, idSet("A"))
	global := &equivalence.GlobalParserActions{Actions: []equivalence.GlobalAction{{
		Behaviour:         equivalence.DropIDsFromParser,
		ParserToTargetIDs: map[string][]string{"test_parser": {"A"}},
	}}}

	require.NoError(t, p.Process([]*equivalence.Curation{curation}, global))

	eligible, terms := p.ExportNERCurationsAndFinalTerms()
	assert.Empty(t, eligible)
	assert.NotContains(t, terms, "FRESH SYNONYM")
}

func TestLoadCurations(t *testing.T) {
	input := `{"curated_synonym": "p53", "entity_class": "gene", "actions": [{"behaviour": "DROP_SYNONYM_TERM_FOR_LINKING"}]}

{"curated_synonym": "egfr", "entity_class": "gene", "actions": [{"behaviour": "IGNORE"}]}`

	curations, err := LoadCurations(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, curations, 2)
	assert.Equal(t, "p53", curations[0].CuratedSynonym)
	assert.NotEmpty(t, curations[0].ID)
}

func TestLoadCurations_InvalidLineFailsLoad(t *testing.T) {
	input := `{"curated_synonym": "p53", "entity_class": "gene", "actions": [{"behaviour": "NOPE"}]}`
	_, err := LoadCurations(strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeCurationLoadFailed))
}

func TestLoadGlobalActions(t *testing.T) {
	input := `{"actions": [{"behaviour": "DROP_IDS_FROM_PARSER", "parser_to_target_ids": {"test_parser": ["A"]}}]}`
	g, err := LoadGlobalActions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, g.Actions, 1)
}
