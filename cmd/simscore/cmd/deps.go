package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/simscore/internal/analysis"
	"github.com/Aman-CERP/simscore/internal/config"
	"github.com/Aman-CERP/simscore/internal/embed"
	"github.com/Aman-CERP/simscore/internal/similarity"
	"github.com/Aman-CERP/simscore/internal/telemetry"
)

// app bundles the components one command invocation shares.
type app struct {
	cfg     *config.Config
	handle  *embed.Handle
	metrics *telemetry.Metrics
	svc     *similarity.Service
}

// newApp wires the analyzer, the encoder handle, telemetry and the
// similarity service from cfg. The encoder is not loaded here.
func newApp(cfg *config.Config) (*app, error) {
	analyzer, err := analysis.New(cfg.Lexical.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	handle := embed.NewHandleFromOptions(embedOptions(cfg), cfg.Embeddings.RetryAfter)
	metrics := newMetrics(cfg)

	svc, err := similarity.NewService(analyzer, handle, similarity.WithRecorder(metrics))
	if err != nil {
		_ = metrics.Close()
		_ = handle.Close()
		return nil, err
	}

	return &app{cfg: cfg, handle: handle, metrics: metrics, svc: svc}, nil
}

// embedOptions maps the embeddings section onto encoder options.
func embedOptions(cfg *config.Config) embed.Options {
	e := cfg.Embeddings
	return embed.Options{
		Provider:      embed.ParseProvider(e.Provider),
		Model:         e.Model,
		OllamaHost:    e.OllamaHost,
		OpenAIBaseURL: e.OpenAIBaseURL,
		OpenAIAPIKey:  e.OpenAIAPIKey,
		AutoPull:      e.AutoPull,
		Timeout:       e.Timeout,
		CacheSize:     e.CacheSize,
		LockDir:       config.DataDir(),
	}
}

// newMetrics opens the persistent metrics store when telemetry is enabled.
// A store that cannot be opened degrades to in-memory metrics.
func newMetrics(cfg *config.Config) *telemetry.Metrics {
	if !cfg.Telemetry.Enabled {
		return telemetry.New(nil)
	}
	store, err := telemetry.OpenSQLiteStore(cfg.Telemetry.DBPath)
	if err != nil {
		slog.Warn("metrics_store_unavailable",
			slog.String("path", cfg.Telemetry.DBPath),
			slog.String("error", err.Error()))
		return telemetry.New(nil)
	}
	return telemetry.New(store)
}

// Close flushes metrics and releases the encoder.
func (a *app) Close() error {
	return errors.Join(a.metrics.Close(), a.handle.Close())
}
