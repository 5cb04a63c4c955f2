package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// OllamaEmbedder generates embeddings using Ollama's HTTP API
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig
	modelName string
	dims      int

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder connects to Ollama, resolves the configured model
// (pulling it when allowed) and probes the embedding dimension.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = OllamaPoolSize
	}
	if cfg.LockDir == "" {
		cfg.LockDir = os.TempDir()
	}

	// No client-level timeout: each request carries its own context deadline
	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		IdleConnTimeout:     90 * time.Second,
	}

	e := &OllamaEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		modelName: cfg.Model,
	}

	modelName, err := e.resolveModel(ctx)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, err
	}
	e.modelName = modelName

	probe, err := e.doEmbedWithRetry(ctx, []string{"dimension probe"})
	if err != nil {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("failed to detect embedding dimensions: %w", err)
	}
	if len(probe) == 0 || len(probe[0]) == 0 {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("ollama returned an empty embedding for %s", modelName)
	}
	e.dims = len(probe[0])

	slog.Info("ollama_embedder_ready",
		slog.String("host", cfg.Host),
		slog.String("model", e.modelName),
		slog.Int("dimensions", e.dims))

	return e, nil
}

// resolveModel finds the configured model among installed models, pulling
// it first if it is missing and AutoPull is set.
func (e *OllamaEmbedder) resolveModel(ctx context.Context) (string, error) {
	listCtx, cancel := context.WithTimeout(ctx, OllamaConnectTimeout)
	models, err := e.listModels(listCtx)
	cancel()
	if err != nil {
		return "", err
	}
	if name, ok := matchModel(models, e.config.Model); ok {
		return name, nil
	}
	if !e.config.AutoPull {
		return "", fmt.Errorf("model %s is not installed in Ollama (run: ollama pull %s)", e.config.Model, e.config.Model)
	}

	if err := e.pullLocked(ctx); err != nil {
		return "", err
	}

	models, err = e.listModels(ctx)
	if err != nil {
		return "", err
	}
	if name, ok := matchModel(models, e.config.Model); ok {
		return name, nil
	}
	return "", fmt.Errorf("model %s still missing after pull", e.config.Model)
}

// matchModel matches want against installed names, by full name or by the
// name without its tag ("all-minilm" matches "all-minilm:latest").
func matchModel(models []OllamaModelInfo, want string) (string, bool) {
	want = strings.ToLower(want)
	wantBase, _, _ := strings.Cut(want, ":")
	var baseMatch string
	for _, m := range models {
		name := strings.ToLower(m.Name)
		if name == want {
			return m.Name, true
		}
		base, _, _ := strings.Cut(name, ":")
		if base == wantBase && baseMatch == "" && !strings.Contains(want, ":") {
			baseMatch = m.Name
		}
	}
	return baseMatch, baseMatch != ""
}

// listModels gets available models from Ollama
func (e *OllamaEmbedder) listModels(ctx context.Context) ([]OllamaModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, simerrors.New(simerrors.ErrCodeNetworkTimeout,
			fmt.Sprintf("failed to connect to Ollama at %s", e.config.Host), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama /api/tags: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result OllamaModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Models, nil
}

// pullLocked pulls the model while holding the cross-process pull lock.
// A concurrent process may finish the pull while we wait, so the model list
// is checked again once the lock is held.
func (e *OllamaEmbedder) pullLocked(ctx context.Context) error {
	lock := NewFileLock(e.config.LockDir, pullLockName)
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if models, err := e.listModels(ctx); err == nil {
		if _, ok := matchModel(models, e.config.Model); ok {
			return nil
		}
	}

	slog.Info("ollama_model_pull_started", slog.String("model", e.config.Model))
	start := time.Now()

	pullCtx, cancel := context.WithTimeout(ctx, OllamaPullTimeout)
	defer cancel()

	err := simerrors.Retry(pullCtx, simerrors.DefaultRetryConfig(), func() error {
		return e.pull(pullCtx)
	})
	if err != nil {
		return simerrors.New(simerrors.ErrCodeModelDownload,
			fmt.Sprintf("failed to pull %s", e.config.Model), err)
	}

	slog.Info("ollama_model_pull_finished",
		slog.String("model", e.config.Model),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (e *OllamaEmbedder) pull(ctx context.Context) error {
	body, err := json.Marshal(OllamaPullRequest{Model: e.config.Model, Stream: false})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return simerrors.New(simerrors.ErrCodeModelDownload, "pull request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result OllamaPullResponse
	_ = json.NewDecoder(resp.Body).Decode(&result)

	switch {
	case resp.StatusCode >= 500:
		return simerrors.New(simerrors.ErrCodeModelDownload,
			fmt.Sprintf("pull failed with status %d: %s", resp.StatusCode, result.Error), nil)
	case resp.StatusCode != http.StatusOK:
		// Client errors (unknown model name) will not fix themselves
		return simerrors.ValidationError(
			fmt.Sprintf("pull rejected with status %d: %s", resp.StatusCode, result.Error), nil)
	case result.Error != "":
		return simerrors.New(simerrors.ErrCodeModelDownload, "pull failed: "+result.Error, nil)
	}
	return nil
}

// Embed generates embedding for a single text
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds texts in one /api/embed call.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings, err := e.doEmbedWithRetry(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(embeddings), len(texts))
	}
	return embeddings, nil
}

func (e *OllamaEmbedder) doEmbedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// 200ms, 400ms, ...
			backoff := time.Duration(100<<attempt) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		embeddings, err := e.doEmbed(timeoutCtx, texts)
		cancel()
		if err == nil {
			return embeddings, nil
		}
		lastErr = err

		slog.Debug("embedding_attempt_failed",
			slog.Int("attempt", attempt+1),
			slog.Int("texts_count", len(texts)),
			slog.String("error", err.Error()))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, simerrors.New(simerrors.ErrCodeEmbeddingFailed,
		fmt.Sprintf("embedding failed after %d attempts", e.config.MaxRetries), lastErr)
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}

	body, err := json.Marshal(OllamaEmbedRequest{Model: e.modelName, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResult OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	embeddings := make([][]float32, len(apiResult.Embeddings))
	for i, emb := range apiResult.Embeddings {
		embeddings[i] = normalizeVector(toFloat32(emb))
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension
func (e *OllamaEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the resolved model name, e.g. "all-minilm:latest"
func (e *OllamaEmbedder) ModelName() string {
	return e.modelName
}

// Available checks that Ollama is reachable and still has the model
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return false
	}

	models, err := e.listModels(ctx)
	if err != nil {
		return false
	}
	_, ok := matchModel(models, e.modelName)
	return ok
}

// Close releases resources
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
