package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// isolate points the user config at an empty temp dir and clears SIMSCORE_* vars.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "SIMSCORE_") || key == "OPENAI_API_KEY" {
			t.Setenv(key, "")
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Server.MaxUploadMB)
	assert.Equal(t, "en", cfg.Lexical.Language)
	assert.Equal(t, ProviderOllama, cfg.Embeddings.Provider)
	assert.Equal(t, "all-minilm", cfg.Embeddings.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Embeddings.OllamaHost)
	assert.Equal(t, 1000, cfg.Embeddings.CacheSize)
	assert.False(t, cfg.Embeddings.Preload)
	assert.True(t, cfg.Embeddings.AutoPull)
	assert.Equal(t, 30*time.Second, cfg.Embeddings.RetryAfter)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 5, cfg.Telemetry.HistorySize)
	assert.Contains(t, cfg.Telemetry.DBPath, "metrics.db")

	require.NoError(t, cfg.Validate())
}

// =============================================================================
// Layering
// =============================================================================

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{Dir: t.TempDir()})

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Server, cfg.Server)
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	// Given: a user config and a project config
	isolate(t)
	writeFile(t, GetUserConfigPath(), "embeddings:\n  model: user-model\n  cache_size: 7\n")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "embeddings:\n  model: project-model\n")

	// When: loading
	cfg, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)

	// Then: project wins where set, user survives elsewhere
	assert.Equal(t, "project-model", cfg.Embeddings.Model)
	assert.Equal(t, 7, cfg.Embeddings.CacheSize)
	assert.Equal(t, "http://localhost:11434", cfg.Embeddings.OllamaHost)
}

func TestLoad_ExplicitFileAndFalseBooleans(t *testing.T) {
	// Given: an explicit config turning a default-true flag off
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "embeddings:\n  auto_pull: false\n  retry_after: 5s\nserver:\n  addr: \":9000\"\n")

	// When: loading with --config
	cfg, err := Load(LoadOptions{Dir: t.TempDir(), Path: path})
	require.NoError(t, err)

	// Then: false and durations are honoured
	assert.False(t, cfg.Embeddings.AutoPull)
	assert.Equal(t, 5*time.Second, cfg.Embeddings.RetryAfter)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.yaml")})

	require.Error(t, err)
	assert.Equal(t, simerrors.ErrCodeConfigNotFound, simerrors.GetCode(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "server: [not, a, map\n")

	_, err := Load(LoadOptions{Dir: dir})

	require.Error(t, err)
	assert.Equal(t, simerrors.ErrCodeConfigInvalid, simerrors.GetCode(err))
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	// Given: a project config and env overrides
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProjectConfigName), "lexical:\n  language: fr\n")
	t.Setenv("SIMSCORE_LEXICAL_LANGUAGE", "de")
	t.Setenv("SIMSCORE_EMBEDDINGS_PROVIDER", "static")
	t.Setenv("SIMSCORE_EMBEDDINGS_PRELOAD", "true")
	t.Setenv("SIMSCORE_MAX_UPLOAD_MB", "3")

	// When: loading
	cfg, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)

	// Then: env has the last word
	assert.Equal(t, "de", cfg.Lexical.Language)
	assert.Equal(t, ProviderStatic, cfg.Embeddings.Provider)
	assert.True(t, cfg.Embeddings.Preload)
	assert.Equal(t, 3, cfg.Server.MaxUploadMB)
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("SIMSCORE_MAX_UPLOAD_MB", "lots")

	_, err := Load(LoadOptions{Dir: t.TempDir()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIMSCORE_MAX_UPLOAD_MB")
}

func TestLoad_DotEnvFile(t *testing.T) {
	// Given: a .env file in the working directory
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "SIMSCORE_EMBEDDINGS_MODEL=from-dotenv\n")
	t.Setenv("SIMSCORE_EMBEDDINGS_MODEL", "")
	require.NoError(t, os.Unsetenv("SIMSCORE_EMBEDDINGS_MODEL"))

	// When: loading
	cfg, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)

	// Then: .env values act as environment overrides
	assert.Equal(t, "from-dotenv", cfg.Embeddings.Model)
}

// =============================================================================
// Validation
// =============================================================================

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"zero upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, "max_upload_mb"},
		{"unknown language", func(c *Config) { c.Lexical.Language = "xx" }, "lexical.language"},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "bert" }, "embeddings.provider"},
		{"openai without url", func(c *Config) { c.Embeddings.Provider = ProviderOpenAI }, "openai_base_url"},
		{"negative cache", func(c *Config) { c.Embeddings.CacheSize = -1 }, "cache_size"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"zero history", func(c *Config) { c.Telemetry.HistorySize = 0 }, "history_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, simerrors.ErrCodeConfigInvalid, simerrors.GetCode(err))
		})
	}
}

func TestValidate_StaticNeedsNoModel(t *testing.T) {
	cfg := NewConfig()
	cfg.Embeddings.Provider = ProviderStatic
	cfg.Embeddings.Model = ""

	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// Init and backups
// =============================================================================

func TestInitUserConfig_WritesDefaultsAndBacksUp(t *testing.T) {
	isolate(t)

	// Given: no user config
	backup, err := InitUserConfig(false)
	require.NoError(t, err)
	assert.Empty(t, backup)
	require.True(t, UserConfigExists())

	// When: initializing again without force
	_, err = InitUserConfig(false)

	// Then: it refuses
	require.Error(t, err)

	// When: forcing
	backup, err = InitUserConfig(true)
	require.NoError(t, err)

	// Then: the old file was backed up and the new one loads cleanly
	assert.FileExists(t, backup)
	cfg, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", cfg.Embeddings.Model)
}

func TestBackupUserConfig_PrunesOld(t *testing.T) {
	isolate(t)
	writeFile(t, GetUserConfigPath(), "lexical:\n  language: en\n")

	for i := 0; i < MaxBackups+2; i++ {
		_, err := BackupUserConfig()
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
}
