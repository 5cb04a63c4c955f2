package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogFile(t *testing.T, dir string) string {
	t.Helper()
	lines := []string{
		`{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"http_server_started","addr":":8000"}`,
		`{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"encoder_preload_failed","model":"all-minilm"}`,
		`{"time":"2026-01-02T10:00:02Z","level":"ERROR","msg":"comparison_failed","code":"ERR_302_MODEL_UNAVAILABLE"}`,
	}
	path := filepath.Join(dir, "server.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestLogsCmd_Tail(t *testing.T) {
	// Given: a log file with three entries
	home := setupTestEnv(t)
	path := writeLogFile(t, home)

	// When: showing the last two lines
	stdout, stderr, err := executeCmd(t, "logs", "--file", path, "-n", "2", "--no-color")

	// Then: only the newest two are printed
	require.NoError(t, err)
	assert.Contains(t, stderr, "Log file: "+path)
	assert.NotContains(t, stdout, "http_server_started")
	assert.Contains(t, stdout, "WARN  encoder_preload_failed model=all-minilm")
	assert.Contains(t, stdout, "ERROR comparison_failed")
}

func TestLogsCmd_LevelAndGrep(t *testing.T) {
	home := setupTestEnv(t)
	path := writeLogFile(t, home)

	stdout, _, err := executeCmd(t, "logs", "--file", path, "--level", "warn", "--grep", "preload", "--no-color")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "encoder_preload_failed")
}

func TestLogsCmd_UsesConfiguredFile(t *testing.T) {
	home := setupTestEnv(t)
	path := writeLogFile(t, filepath.Join(home))
	t.Setenv("SIMSCORE_LOG_FILE", path)

	stdout, _, err := executeCmd(t, "logs", "--no-color")

	require.NoError(t, err)
	assert.Contains(t, stdout, "http_server_started")
}

func TestLogsCmd_MissingFile(t *testing.T) {
	home := setupTestEnv(t)

	_, _, err := executeCmd(t, "logs", "--file", filepath.Join(home, "none.log"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log file not found")
}

func TestLogsCmd_BadPattern(t *testing.T) {
	home := setupTestEnv(t)
	path := writeLogFile(t, home)

	_, _, err := executeCmd(t, "logs", "--file", path, "--grep", "([")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid grep pattern")
}
