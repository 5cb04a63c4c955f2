package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/simscore/internal/batch"
	"github.com/Aman-CERP/simscore/internal/similarity"
)

type batchOptions struct {
	input   string
	output  string
	workers int
	method  string
}

func newBatchCmd() *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score many text pairs from a JSONL file",
		Long: `Score text pairs concurrently.

Each input line is a JSON object:
  {"id": 1, "text1": "...", "text2": "...", "method": "semantic"}

"id" and "method" are optional. One JSON line is written per input line, in
input order. A malformed line produces an error line and does not stop the
run.`,
		Example: `  # Score pairs.jsonl with 8 workers
  simscore batch --input pairs.jsonl --workers 8 > scores.jsonl

  # Read from stdin, default to semantic
  cat pairs.jsonl | simscore batch --method semantic`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBatch(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "Input JSONL file (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "Output JSONL file (- for stdout)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent comparisons (default: number of CPUs)")
	cmd.Flags().StringVarP(&opts.method, "method", "m", string(similarity.MethodLexical), "Method for lines without one")

	return cmd
}

func runBatch(ctx context.Context, cmd *cobra.Command, opts batchOptions) error {
	a, err := newApp(currentConfig())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	runnerOpts := []batch.Option{batch.WithDefaultMethod(opts.method)}
	if opts.workers > 0 {
		runnerOpts = append(runnerOpts, batch.WithWorkers(opts.workers))
	}
	runner, err := batch.NewRunner(a.svc, runnerOpts...)
	if err != nil {
		return err
	}
	defer runner.Release()

	in := cmd.InOrStdin()
	if opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.output != "-" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	w := bufio.NewWriter(out)

	summary, runErr := runner.Run(ctx, in, w)
	if err := w.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Scored %d pairs (%d failed) in %s with %d workers\n",
		summary.Total, summary.Failed, summary.Duration.Round(time.Millisecond), runner.Workers())
	return runErr
}
