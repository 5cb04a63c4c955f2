package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/simscore/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools:
  compare_texts      score two texts (method: lexical or semantic)
  similarity_status  encoder availability and telemetry

Logs go to ~/.simscore/logs/server.log; stdout is reserved for JSON-RPC.`,
		Example: `  # Register with an MCP client
  simscore mcp`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMCP(ctx)
		},
	}
}

func runMCP(ctx context.Context) error {
	cfg := currentConfig()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := mcp.NewServer(a.svc, a.handle, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()
	srv.SetMetrics(a.metrics)

	if err := srv.Serve(ctx, "stdio"); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
