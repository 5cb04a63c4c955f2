package cmd

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/simscore/internal/batch"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

func readOutcomes(t *testing.T, data string) []batch.Outcome {
	t.Helper()
	var outcomes []batch.Outcome
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		var o batch.Outcome
		require.NoError(t, json.Unmarshal(sc.Bytes(), &o))
		outcomes = append(outcomes, o)
	}
	require.NoError(t, sc.Err())
	return outcomes
}

func TestBatchCmd_Files(t *testing.T) {
	// Given: an input file with a good pair, a bad method and a bad line
	home := setupTestEnv(t)
	input := filepath.Join(home, "pairs.jsonl")
	output := filepath.Join(home, "scores.jsonl")
	lines := []string{
		`{"id": "a", "text1": "hello world", "text2": "hello world"}`,
		`{"id": "b", "text1": "x", "text2": "y", "method": "fuzzy"}`,
		`not json`,
	}
	require.NoError(t, os.WriteFile(input, []byte(strings.Join(lines, "\n")), 0o644))

	// When: running the batch
	_, stderr, err := executeCmd(t, "batch", "--input", input, "--output", output, "--workers", "2")

	// Then: one outcome per line, in input order
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	outcomes := readOutcomes(t, string(data))
	require.Len(t, outcomes, 3)

	assert.JSONEq(t, `"a"`, string(outcomes[0].ID))
	require.NotNil(t, outcomes[0].Score)
	assert.Equal(t, 1.0, *outcomes[0].Score)
	assert.Equal(t, "TF-IDF", outcomes[0].MethodUsed)

	require.NotNil(t, outcomes[1].Error)
	assert.Equal(t, simerrors.ErrCodeInvalidMethod, outcomes[1].Error.Code)

	require.NotNil(t, outcomes[2].Error)
	assert.Equal(t, simerrors.ErrCodeInvalidInput, outcomes[2].Error.Code)

	assert.Contains(t, stderr, "Scored 3 pairs (2 failed)")
	assert.Contains(t, stderr, "with 2 workers")
}

func TestBatchCmd_StdinStdout(t *testing.T) {
	setupTestEnv(t)

	cmd := NewRootCmd()
	stdout := new(strings.Builder)
	cmd.SetIn(strings.NewReader(`{"text1": "a b c", "text2": "a b c"}` + "\n"))
	cmd.SetOut(stdout)
	cmd.SetErr(new(strings.Builder))
	cmd.SetArgs([]string{"batch", "--method", "semantic"})

	require.NoError(t, cmd.Execute())

	outcomes := readOutcomes(t, stdout.String())
	require.Len(t, outcomes, 1)
	assert.Equal(t, "Semantic (static-hash)", outcomes[0].MethodUsed)
}

func TestBatchCmd_InvalidDefaultMethod(t *testing.T) {
	setupTestEnv(t)

	_, _, err := executeCmd(t, "batch", "--method", "fuzzy")

	require.Error(t, err)
	assert.Equal(t, simerrors.ErrCodeInvalidMethod, simerrors.GetCode(err))
}

func TestBatchCmd_MissingInput(t *testing.T) {
	home := setupTestEnv(t)

	_, _, err := executeCmd(t, "batch", "--input", filepath.Join(home, "missing.jsonl"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input")
}
