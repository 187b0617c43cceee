package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeTermNotFound, "term norm FOO not found")
	assert.Equal(t, "[DB_002] term norm FOO not found", err.Error())

	withDetail := err.WithDetail("parser=mondo")
	assert.Equal(t, "[DB_002] term norm FOO not found: parser=mondo", withDetail.Error())
	// the original is not mutated
	assert.Empty(t, err.Detail)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeIngestFailed, "should be nil"))

	cause := errors.New("boom")
	err := Wrap(cause, CodeIngestFailed, "ingestion failed")
	require.NotNil(t, err)
	assert.Equal(t, CodeIngestFailed, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := New(CodeTermConflict, "collision")
	outer := Wrap(inner, CodeUnknown, "while processing curation")
	assert.Equal(t, CodeTermConflict, outer.Code)
}

func TestIsCode(t *testing.T) {
	inner := New(CodeTermConflict, "collision")
	wrapped := fmt.Errorf("outer: %w", inner)
	assert.True(t, IsCode(wrapped, CodeTermConflict))
	assert.False(t, IsCode(wrapped, CodeTermNotFound))
	assert.False(t, IsCode(nil, CodeTermConflict))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(CodeTermNotFound, "x")))
	assert.True(t, IsNotFound(New(CodeIDNotFound, "x")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsNotFound(New(CodeTermConflict, "x")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestIsDataIntegrity(t *testing.T) {
	assert.True(t, IsDataIntegrity(New(CodeTermConflict, "x")))
	assert.True(t, IsDataIntegrity(New(CodeDisjointnessViolation, "x")))
	assert.False(t, IsDataIntegrity(New(CodeCurationInvalid, "x")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(errors.New("plain")))
	assert.Equal(t, CodeConflict, GetCode(Conflict("x")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "CUR", ModuleForCode(CodeCurationConflict))
	assert.Equal(t, "DB", ModuleForCode(CodeTermConflict))
	assert.Equal(t, "ONTO", ModuleForCode(CodeDisjointnessViolation))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "synonym term not found", DefaultMessageForCode(CodeTermNotFound))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}
