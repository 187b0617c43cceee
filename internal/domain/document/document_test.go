package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ontolink/internal/domain/equivalence"
	"github.com/turtacn/ontolink/pkg/errors"
)

func TestDocument_MappedIDs(t *testing.T) {
	doc := New("doc-1")
	first := doc.AddEntity(&Entity{Match: "TP53", MatchNorm: "TP53", EntityClass: "gene"})
	doc.AddEntity(&Entity{Match: "breast cancer", MatchNorm: "BREAST CANCER", EntityClass: "disease"})

	first.AddMapping(equivalence.Mapping{
		DefaultLabel: "TP53",
		ID:           "HGNC:11998",
		Source:       "HGNC",
		ParserName:   "hgnc_parser",
		Confidence:   equivalence.HighlyLikely,
	})

	mapped := doc.MappedIDs()
	require.Len(t, mapped, 1)
	_, ok := mapped[equivalence.IDAndSource{ID: "HGNC:11998", Source: "HGNC"}]
	assert.True(t, ok)

	assert.Equal(t, []string{"TP53", "BREAST CANCER"}, doc.MentionNorms())
}

func TestDocument_MentionNorms_FallsBackToRawMatch(t *testing.T) {
	doc := New("doc-3")
	doc.AddEntity(&Entity{Match: "TNFα", MatchNorm: "TNF ALPHA", EntityClass: "gene"})
	doc.AddEntity(&Entity{Match: "insulin", EntityClass: "drug"})

	assert.Equal(t, []string{"TNF ALPHA", "insulin"}, doc.MentionNorms())
}

func TestDocument_RecordProcessingException(t *testing.T) {
	doc := New("doc-2")
	doc.RecordProcessingException(errors.Internal("linking step failed"))

	require.NotNil(t, doc.Metadata)
	assert.Contains(t, doc.Metadata[ProcessingExceptionKey], "linking step failed")
}
