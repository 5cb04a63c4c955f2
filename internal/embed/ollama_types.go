package embed

import "time"

// Ollama API constants
const (
	// DefaultOllamaHost is the default Ollama API endpoint
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is Ollama's packaging of all-MiniLM-L6-v2
	DefaultOllamaModel = "all-minilm"

	// OllamaConnectTimeout bounds the model listing done while loading
	OllamaConnectTimeout = 5 * time.Second

	// OllamaPullTimeout bounds a model pull
	OllamaPullTimeout = 10 * time.Minute

	// OllamaPoolSize for connection pool
	OllamaPoolSize = 4

	pullLockName = ".pull.lock"
)

// OllamaConfig configures the Ollama embedder
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434)
	Host string

	// Model is the embedding model to use (default: all-minilm)
	Model string

	// Timeout for a single embed request (default: 30s)
	Timeout time.Duration

	// MaxRetries for transient embed failures (default: 3)
	MaxRetries int

	// AutoPull pulls Model when Ollama does not have it
	AutoPull bool

	// LockDir holds the cross-process pull lock (default: os.TempDir())
	LockDir string

	// PoolSize for HTTP connection pool (default: 4)
	PoolSize int
}

// DefaultOllamaConfig returns sensible defaults
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:       DefaultOllamaHost,
		Model:      DefaultOllamaModel,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		AutoPull:   true,
		PoolSize:   OllamaPoolSize,
	}
}

// OllamaEmbedRequest is the Ollama /api/embed request
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string for batch
}

// OllamaEmbedResponse is the Ollama /api/embed response
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaModelListResponse is the Ollama /api/tags response
type OllamaModelListResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

// OllamaModelInfo describes an installed model
type OllamaModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

// OllamaPullRequest is the Ollama /api/pull request
type OllamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// OllamaPullResponse is the non-streamed /api/pull response
type OllamaPullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
