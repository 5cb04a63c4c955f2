package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/simscore/internal/api"
	"github.com/Aman-CERP/simscore/internal/document"
	"github.com/Aman-CERP/simscore/internal/similarity"
	"github.com/Aman-CERP/simscore/internal/ui"
)

func newTUICmd() *cobra.Command {
	var (
		server  string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive comparison client",
		Long: `Open an interactive terminal client.

Enter two texts, pick a method and submit; the last comparisons are kept on
screen. By default texts are scored in-process. With --server the client
calls a running 'simscore serve' instead.

Keys:
  tab     switch between the text areas
  ctrl+t  toggle the method
  ctrl+s  compare
  ctrl+l  clear history
  esc     quit`,
		Example: `  # Score locally
  simscore tui

  # Use a running API
  simscore tui --server http://localhost:8000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTUI(ctx, server, noColor)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Base URL of a simscore HTTP API")
	cmd.Flags().BoolVar(&noColor, "no-color", ui.DetectNoColor(), "Disable colored output")

	return cmd
}

func runTUI(ctx context.Context, server string, noColor bool) error {
	cfg := currentConfig()

	methods := make([]string, 0, len(similarity.Methods()))
	for _, m := range similarity.Methods() {
		methods = append(methods, string(m))
	}

	tuiCfg := ui.TUIConfig{
		Methods:     methods,
		HistorySize: cfg.Telemetry.HistorySize,
		NoColor:     noColor,
		Title:       "Text Similarity Checker",
	}

	if server != "" {
		tuiCfg.Compare = remoteCompare(api.NewClient(server, 0))
		return ui.RunTUI(ctx, tuiCfg)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	tuiCfg.Compare = localCompare(a.svc)
	return ui.RunTUI(ctx, tuiCfg)
}

// localCompare scores in-process.
func localCompare(svc *similarity.Service) ui.CompareFunc {
	return func(ctx context.Context, text1, text2, method string) (ui.ResultView, error) {
		start := time.Now()
		result, err := svc.CompareString(ctx, document.Clean(text1), document.Clean(text2), method)
		if err != nil {
			return ui.ResultView{}, err
		}
		return ui.ResultView{
			Text1:      text1,
			Text2:      text2,
			Score:      result.Score,
			Method:     result.Method,
			Percentage: result.Percentage(),
			Duration:   time.Since(start),
		}, nil
	}
}

// remoteCompare posts the texts to a running API, which cleans them.
func remoteCompare(client *api.Client) ui.CompareFunc {
	return func(ctx context.Context, text1, text2, method string) (ui.ResultView, error) {
		start := time.Now()
		resp, err := client.CompareTexts(ctx, text1, text2, method)
		if err != nil {
			return ui.ResultView{}, err
		}
		return ui.ResultView{
			Text1:      text1,
			Text2:      text2,
			Score:      resp.SimilarityScore,
			Method:     resp.MethodUsed,
			Percentage: resp.PercentageSimilarity,
			Duration:   time.Since(start),
		}, nil
	}
}
