package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	// Given: a GrepError
	err := PathNotFound("file", "/tmp/gone.txt")

	// When: formatting for user
	result := FormatForUser(err)

	// Then: contains message
	assert.Contains(t, result, "file '/tmp/gone.txt' does not exist")
	// And: contains error code at end
	assert.Contains(t, result, "[ERR_201_PATH_NOT_FOUND]")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	// Given: an error with suggestion
	err := Permission("/etc/shadow", nil).
		WithSuggestion("Run with a user that can read the file")

	// When: formatting for user
	result := FormatForUser(err)

	// Then: contains suggestion
	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "Run with a user that can read the file")
}

func TestFormatForUser_StandardError(t *testing.T) {
	// Given: a standard Go error
	err := errors.New("something went wrong")

	// When: formatting for user
	result := FormatForUser(err)

	// Then: shows the plain message
	assert.Contains(t, result, "something went wrong")
}

func TestFormatForUser_NilError(t *testing.T) {
	// When: formatting nil
	result := FormatForUser(nil)

	// Then: returns empty string
	assert.Empty(t, result)
}

func TestFormatJSON_BasicError(t *testing.T) {
	// Given: a GrepError with details
	err := Decode("/tmp/blob.dat.txt").
		WithSuggestion("Only text files can be searched")

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: valid JSON
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	// And: contains expected fields
	assert.Equal(t, ErrCodeFileDecode, result["code"])
	assert.Equal(t, "cannot decode '/tmp/blob.dat.txt' as text; it may be a binary file", result["message"])
	assert.Equal(t, string(CategoryIO), result["category"])
	assert.Equal(t, string(SeverityError), result["severity"])
	assert.Equal(t, "Only text files can be searched", result["suggestion"])

	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/tmp/blob.dat.txt", details["path"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	// Given: a standard error
	err := errors.New("generic error")

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: valid JSON with internal error code
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodeInternal, result["code"])
	assert.Equal(t, "generic error", result["message"])
}

func TestFormatJSON_NilError(t *testing.T) {
	// When: formatting nil
	data, err := FormatJSON(nil)

	// Then: returns empty result
	assert.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(data)))
}

func TestFormatJSON_WithCause(t *testing.T) {
	// Given: an error with cause
	cause := errors.New("read /x: input/output error")
	err := ReadFailed("/x", cause)

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: includes cause
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "read /x: input/output error", result["cause"])
}

func TestFormatForCLI_BasicError(t *testing.T) {
	// Given: an error with a hint
	err := InvalidArgument("keyword must not be empty").
		WithSuggestion("Pass a non-empty keyword")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: contains error info
	assert.Contains(t, result, "Error: keyword must not be empty")
	assert.Contains(t, result, "Hint: Pass a non-empty keyword")
	assert.Contains(t, result, "Code: ERR_401_INVALID_ARGUMENT")
}

func TestFormatForCLI_WrapsStandardError(t *testing.T) {
	// Given: a standard error
	err := errors.New("boom")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: wrapped as internal
	assert.Contains(t, result, "Error: boom")
	assert.Contains(t, result, "Code: ERR_501_INTERNAL")
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	// Given: a simple error
	err := NotAFile("/tmp/somedir")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: is concise
	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "Should be concise")
}

func TestFormatForLog_NilError(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}

func TestFormatForLog_StandardError(t *testing.T) {
	fields := FormatForLog(errors.New("plain"))

	assert.Equal(t, map[string]any{"error": "plain"}, fields)
}

func TestFormatForLog_StructuredFields(t *testing.T) {
	// Given: a retryable error with cause and details
	err := New(ErrCodeHistoryFailed, "database locked", errors.New("SQLITE_BUSY")).
		WithDetail("db_path", "/home/u/.grepmcp/history.db")

	// When: formatting for slog
	fields := FormatForLog(err)

	// Then: keys match the structured logging contract
	assert.Equal(t, ErrCodeHistoryFailed, fields["error_code"])
	assert.Equal(t, "database locked", fields["message"])
	assert.Equal(t, string(CategoryInternal), fields["category"])
	assert.Equal(t, true, fields["retryable"])
	assert.Equal(t, "SQLITE_BUSY", fields["cause"])
	assert.Equal(t, "/home/u/.grepmcp/history.db", fields["detail_db_path"])
}
