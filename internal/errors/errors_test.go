package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKBError_Unwrap_PreservesCause(t *testing.T) {
	// Given: a low-level failure
	cause := errors.New("disk I/O error")

	// When: it is wrapped
	err := New(ErrCodeIndexFailed, "index failed", cause)

	// Then: the chain still reaches the cause
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestKBError_Error_IncludesCode(t *testing.T) {
	err := New(ErrCodeQueryEmpty, "Query must include at least one term.", nil)
	assert.Equal(t, "[ERR_404_QUERY_EMPTY] Query must include at least one term.", err.Error())
}

func TestKBError_Is_MatchesByCode(t *testing.T) {
	a := New(ErrCodeInvalidQuery, "bad syntax near \"(\"", nil)
	b := New(ErrCodeInvalidQuery, "other", nil)
	c := New(ErrCodeQueryEmpty, "empty", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKBError_CategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeCorruptIndex, CategoryStorage, SeverityFatal},
		{ErrCodeIndexLocked, CategoryStorage, SeverityError},
		{ErrCodeQueryEmpty, CategoryValidation, SeverityError},
		{ErrCodeSearchFailed, CategoryInternal, SeverityError},
		{"bogus", CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "x", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsInvalidInput_ThroughFmtWrapping(t *testing.T) {
	// Given: a validation error wrapped by fmt.Errorf
	inner := ValidationError("query has no searchable terms", nil)
	outer := fmt.Errorf("recall: %w", inner)

	// Then: helpers see through the wrapping
	assert.True(t, IsInvalidInput(outer))
	assert.Equal(t, ErrCodeInvalidInput, GetCode(outer))
	assert.False(t, IsInvalidInput(StorageError("locked", nil)))
	assert.False(t, IsInvalidInput(errors.New("plain")))
}

func TestFormatForCLI(t *testing.T) {
	err := New(ErrCodeIndexLocked, "index is locked", nil).
		WithSuggestion("wait for the running index to finish")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: index is locked")
	assert.Contains(t, out, "Hint: wait for the running index to finish")
	assert.Contains(t, out, "Code: ERR_207_INDEX_LOCKED")
	assert.Contains(t, FormatForCLI(errors.New("boom")), "Code: ERR_501_INTERNAL")
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	err := New(ErrCodeInvalidQuery, "fts5: syntax error", errors.New("sqlite")).
		WithDetail("query", "AND (")

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ERR_403_INVALID_QUERY", got["code"])
	assert.Equal(t, "VALIDATION", got["category"])
	assert.Equal(t, "sqlite", got["cause"])
	assert.Equal(t, map[string]any{"query": "AND ("}, got["details"])
}

func TestLogAttrs_SortedDetails(t *testing.T) {
	err := New(ErrCodeFileRead, "read failed", nil).
		WithDetail("path", "docs/a.md").
		WithDetail("op", "read")

	attrs := LogAttrs(err)

	assert.Equal(t, []any{
		"error_code", ErrCodeFileRead, "error", "read failed",
		"detail_op", "read", "detail_path", "docs/a.md",
	}, attrs)
}
