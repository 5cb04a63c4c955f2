package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/simscore/internal/api"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		preload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP similarity API",
		Long: `Run the HTTP API.

Endpoints:
  GET  /                welcome message
  GET  /healthz         liveness and encoder state
  GET  /metrics         comparison telemetry
  POST /compare-texts/  form fields text1, text2, method
  POST /compare-files/  multipart fields file1, file2, method

The semantic encoder loads on the first semantic request unless --preload
is given or embeddings.preload is set.`,
		Example: `  # Serve on the configured address (default :8000)
  simscore serve

  # Serve on another port and load the encoder up front
  simscore serve --addr :9000 --preload`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, addr, preload)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&preload, "preload", false, "Load the semantic encoder at startup")

	return cmd
}

func runServe(ctx context.Context, addr string, preload bool) error {
	cfg := currentConfig()
	if addr != "" {
		cfg.Server.Addr = addr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if preload || cfg.Embeddings.Preload {
		// A failed preload is remembered by the handle; lexical keeps working
		if err := a.handle.Preload(ctx); err != nil {
			slog.Warn("encoder_preload_failed",
				slog.String("model", a.handle.ModelName()),
				slog.String("error", err.Error()))
		}
	}

	handler := api.NewHandler(a.svc, a.handle, a.metrics, int64(cfg.Server.MaxUploadMB)<<20)
	return api.Serve(ctx, api.ServerConfig{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, api.NewRouter(handler))
}
