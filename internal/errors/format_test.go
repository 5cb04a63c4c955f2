package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_SimError(t *testing.T) {
	// Given: a model unavailable error
	err := ModelUnavailable("all-minilm", errors.New("dial tcp: refused"))

	// When: formatting for CLI
	out := FormatForCLI(err)

	// Then: message, hint and code are shown, cause is not
	assert.Contains(t, out, "Error: embedding model all-minilm is unavailable")
	assert.Contains(t, out, "Hint: use method 'lexical'")
	assert.Contains(t, out, "Code: ERR_302_MODEL_UNAVAILABLE")
	assert.NotContains(t, out, "dial tcp")
}

func TestFormatForCLI_PlainError(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, ErrCodeInternal)
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	// Given: an invalid method error
	err := InvalidMethod("fuzzy", []string{"lexical", "semantic"})

	// When: formatting as JSON
	data, ferr := FormatJSON(err)
	require.NoError(t, ferr)

	// Then: the payload has error and code fields
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeInvalidMethod, got["code"])
	assert.Contains(t, got["error"], `"fuzzy"`)
	assert.Equal(t, "VALIDATION", got["category"])
	assert.Equal(t, false, got["retryable"])
}

func TestFormatJSON_Nil(t *testing.T) {
	data, err := FormatJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestFormatForLog(t *testing.T) {
	err := ModelUnavailable("all-minilm", errors.New("refused"))

	attrs := FormatForLog(err)

	assert.Contains(t, attrs, "error_code")
	assert.Contains(t, attrs, ErrCodeModelUnavailable)
	assert.Contains(t, attrs, "refused")
	assert.Contains(t, attrs, "detail_model")

	assert.Equal(t, []any{"error", "plain"}, FormatForLog(errors.New("plain")))
	assert.Nil(t, FormatForLog(nil))
}
