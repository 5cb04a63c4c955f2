package embed

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderOllama uses a local Ollama server (default)
	ProviderOllama ProviderType = "ollama"

	// ProviderOpenAI uses any OpenAI-compatible /embeddings endpoint
	ProviderOpenAI ProviderType = "openai"

	// ProviderStatic uses hash-based embeddings, no model required
	ProviderStatic ProviderType = "static"
)

// ParseProvider parses a provider name, defaulting to Ollama.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ProviderOpenAI):
		return ProviderOpenAI
	case string(ProviderStatic):
		return ProviderStatic
	default:
		return ProviderOllama
	}
}

// Options selects and configures the encoder a Handle loads.
type Options struct {
	Provider      ProviderType
	Model         string
	OllamaHost    string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	AutoPull      bool
	Timeout       time.Duration
	// CacheSize enables an LRU embedding cache when positive.
	CacheSize int
	// LockDir holds the Ollama pull lock.
	LockDir string
}

// DisplayModel is the model name to report before the encoder is loaded.
func (o Options) DisplayModel() string {
	switch o.Provider {
	case ProviderStatic:
		return StaticModelName
	case ProviderOllama:
		if o.Model == "" {
			return DefaultOllamaModel
		}
	}
	return o.Model
}

// NewEmbedder constructs the configured encoder. This is the expensive step
// a Handle runs once: it may connect, pull and probe.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)

	switch opts.Provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder()

	case ProviderOpenAI:
		embedder, err = NewOpenAIEmbedder(ctx, OpenAIConfig{
			BaseURL: opts.OpenAIBaseURL,
			Model:   opts.Model,
			APIKey:  opts.OpenAIAPIKey,
		})

	case ProviderOllama, "":
		cfg := DefaultOllamaConfig()
		if opts.OllamaHost != "" {
			cfg.Host = opts.OllamaHost
		}
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		cfg.AutoPull = opts.AutoPull
		cfg.LockDir = opts.LockDir
		embedder, err = NewOllamaEmbedder(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", opts.Provider)
	}
	if err != nil {
		return nil, err
	}

	if opts.CacheSize > 0 {
		embedder = NewCachedEmbedder(embedder, opts.CacheSize)
	}
	return embedder, nil
}

// LoaderFor returns a Loader that builds the encoder described by opts.
func LoaderFor(opts Options) Loader {
	return func(ctx context.Context) (Embedder, error) {
		return NewEmbedder(ctx, opts)
	}
}
