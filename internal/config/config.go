package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// Embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderStatic = "static"
)

// ProjectConfigName is the per-directory configuration file.
const ProjectConfigName = ".simscore.yaml"

// Config represents the complete simscore configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Lexical    LexicalConfig    `yaml:"lexical" json:"lexical"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	MaxUploadMB  int           `yaml:"max_upload_mb" json:"max_upload_mb"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// LexicalConfig configures TF-IDF tokenization.
type LexicalConfig struct {
	// Language selects the stopword list (en, fr, de, es, it, pt, nl).
	Language string `yaml:"language" json:"language"`
}

// EmbeddingsConfig configures the semantic encoder.
type EmbeddingsConfig struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`

	// Ollama settings (default provider)
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// OpenAI-compatible endpoint settings
	OpenAIBaseURL string `yaml:"openai_base_url" json:"openai_base_url"`
	OpenAIAPIKey  string `yaml:"openai_api_key" json:"-"`

	// CacheSize is the number of cached embeddings (0 disables the cache).
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// Preload loads the encoder at startup instead of on first use.
	Preload bool `yaml:"preload" json:"preload"`

	// AutoPull lets the Ollama provider pull a missing model.
	AutoPull bool `yaml:"auto_pull" json:"auto_pull"`

	// RetryAfter is how long a failed encoder load is remembered before
	// another attempt is allowed.
	RetryAfter time.Duration `yaml:"retry_after" json:"retry_after"`

	// Timeout bounds a single embedding request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	File      string `yaml:"file" json:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// TelemetryConfig configures aggregate query metrics.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DBPath  string `yaml:"db_path" json:"db_path"`
	// HistorySize caps the in-memory list of recent comparisons.
	HistorySize int `yaml:"history_size" json:"history_size"`
}

// SupportedLanguages lists the stopword languages accepted by lexical.language.
var SupportedLanguages = []string{"en", "fr", "de", "es", "it", "pt", "nl"}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			MaxUploadMB:  10,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Lexical: LexicalConfig{
			Language: "en",
		},
		Embeddings: EmbeddingsConfig{
			Provider:   ProviderOllama,
			Model:      "all-minilm",
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
			AutoPull:   true,
			RetryAfter: 30 * time.Second,
			Timeout:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			DBPath:      defaultMetricsPath(),
			HistorySize: 5,
		},
	}
}

// DataDir returns ~/.simscore, falling back to the temp directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".simscore")
	}
	return filepath.Join(home, ".simscore")
}

func defaultMetricsPath() string {
	return filepath.Join(DataDir(), "metrics.db")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/simscore/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/simscore/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "simscore", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "simscore", "config.yaml")
	}
	return filepath.Join(home, ".config", "simscore", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// Dir is the working directory holding .simscore.yaml and .env.
	Dir string
	// Path is an explicit config file (--config). It must exist when set.
	Path string
}

// Load loads configuration.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/simscore/config.yaml)
//  3. Project config (.simscore.yaml in Dir)
//  4. Explicit config file (--config)
//  5. Environment variables (SIMSCORE_*), including those from Dir/.env
func Load(opts LoadOptions) (*Config, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromDir(opts.Dir); err != nil {
		return nil, err
	}

	if opts.Path != "" {
		if !fileExists(opts.Path) {
			return nil, simerrors.New(simerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", opts.Path), nil)
		}
		if err := cfg.loadYAML(opts.Path); err != nil {
			return nil, err
		}
	}

	// .env never overrides variables already present in the environment
	if envPath := filepath.Join(opts.Dir, ".env"); fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, simerrors.ConfigError("failed to load "+envPath, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromDir loads .simscore.yaml or .simscore.yml from dir if present.
func (c *Config) loadFromDir(dir string) error {
	yamlPath := filepath.Join(dir, ProjectConfigName)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".simscore.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML decodes path onto the current values, so keys the file does not
// mention keep their earlier value.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return simerrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return simerrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}

// applyEnvOverrides applies SIMSCORE_* environment variables.
func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"SIMSCORE_ADDR":                &c.Server.Addr,
		"SIMSCORE_LEXICAL_LANGUAGE":    &c.Lexical.Language,
		"SIMSCORE_EMBEDDINGS_PROVIDER": &c.Embeddings.Provider,
		"SIMSCORE_EMBEDDINGS_MODEL":    &c.Embeddings.Model,
		"SIMSCORE_OLLAMA_HOST":         &c.Embeddings.OllamaHost,
		"SIMSCORE_OPENAI_BASE_URL":     &c.Embeddings.OpenAIBaseURL,
		"SIMSCORE_OPENAI_API_KEY":      &c.Embeddings.OpenAIAPIKey,
		"SIMSCORE_LOG_LEVEL":           &c.Logging.Level,
		"SIMSCORE_LOG_FILE":            &c.Logging.File,
		"SIMSCORE_TELEMETRY_DB":        &c.Telemetry.DBPath,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SIMSCORE_MAX_UPLOAD_MB":          &c.Server.MaxUploadMB,
		"SIMSCORE_EMBEDDINGS_CACHE_SIZE":  &c.Embeddings.CacheSize,
		"SIMSCORE_TELEMETRY_HISTORY_SIZE": &c.Telemetry.HistorySize,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return simerrors.ConfigError(fmt.Sprintf("%s must be an integer, got %q", key, v), err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"SIMSCORE_EMBEDDINGS_PRELOAD":   &c.Embeddings.Preload,
		"SIMSCORE_EMBEDDINGS_AUTO_PULL": &c.Embeddings.AutoPull,
		"SIMSCORE_TELEMETRY_ENABLED":    &c.Telemetry.Enabled,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return simerrors.ConfigError(fmt.Sprintf("%s must be a boolean, got %q", key, v), err)
			}
			*dst = b
		}
	}

	if v := os.Getenv("SIMSCORE_EMBEDDINGS_RETRY_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return simerrors.ConfigError(fmt.Sprintf("SIMSCORE_EMBEDDINGS_RETRY_AFTER must be a duration, got %q", v), err)
		}
		c.Embeddings.RetryAfter = d
	}

	// Conventional key name used by OpenAI-compatible tooling
	if c.Embeddings.OpenAIAPIKey == "" {
		c.Embeddings.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	return nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return simerrors.ConfigError("server.addr must not be empty", nil)
	}
	if c.Server.MaxUploadMB <= 0 {
		return simerrors.ConfigError(fmt.Sprintf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB), nil)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return simerrors.ConfigError("server timeouts must be non-negative", nil)
	}

	if !slices.Contains(SupportedLanguages, strings.ToLower(c.Lexical.Language)) {
		return simerrors.ConfigError(fmt.Sprintf("lexical.language must be one of %v, got %q", SupportedLanguages, c.Lexical.Language), nil)
	}

	switch strings.ToLower(c.Embeddings.Provider) {
	case ProviderOllama:
		if c.Embeddings.OllamaHost == "" {
			return simerrors.ConfigError("embeddings.ollama_host is required for the ollama provider", nil)
		}
	case ProviderOpenAI:
		if c.Embeddings.OpenAIBaseURL == "" {
			return simerrors.ConfigError("embeddings.openai_base_url is required for the openai provider", nil)
		}
	case ProviderStatic:
	default:
		return simerrors.ConfigError(fmt.Sprintf("embeddings.provider must be 'ollama', 'openai' or 'static', got %q", c.Embeddings.Provider), nil)
	}
	if c.Embeddings.Model == "" && !strings.EqualFold(c.Embeddings.Provider, ProviderStatic) {
		return simerrors.ConfigError("embeddings.model must not be empty", nil)
	}
	if c.Embeddings.CacheSize < 0 {
		return simerrors.ConfigError(fmt.Sprintf("embeddings.cache_size must be non-negative, got %d", c.Embeddings.CacheSize), nil)
	}
	if c.Embeddings.RetryAfter < 0 || c.Embeddings.Timeout < 0 {
		return simerrors.ConfigError("embeddings durations must be non-negative", nil)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return simerrors.ConfigError(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	if c.Logging.MaxSizeMB <= 0 || c.Logging.MaxFiles <= 0 {
		return simerrors.ConfigError("logging.max_size_mb and logging.max_files must be positive", nil)
	}

	if c.Telemetry.HistorySize < 1 {
		return simerrors.ConfigError(fmt.Sprintf("telemetry.history_size must be at least 1, got %d", c.Telemetry.HistorySize), nil)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may carry an API key
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
