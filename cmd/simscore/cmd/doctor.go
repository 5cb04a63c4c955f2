package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/simscore/internal/analysis"
	"github.com/Aman-CERP/simscore/internal/config"
	"github.com/Aman-CERP/simscore/internal/embed"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
	"github.com/Aman-CERP/simscore/internal/logging"
	"github.com/Aman-CERP/simscore/internal/telemetry"
	"github.com/Aman-CERP/simscore/internal/ui"
	"github.com/Aman-CERP/simscore/pkg/version"
)

// reportedError is a failure the command already showed to the user.
type reportedError struct {
	message string
}

func (e *reportedError) Error() string {
	return e.message
}

type doctorOptions struct {
	jsonOutput  bool
	noColor     bool
	skipEncoder bool
	timeout     time.Duration
}

func newDoctorCmd() *cobra.Command {
	var opts doctorOptions

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and diagnose issues",
		Long: `Run diagnostics to ensure simscore can operate correctly.

Checks:
  - Configuration loads and validates
  - Lexical analyzer for the configured language
  - Semantic encoder loads (this may pull the model)
  - Metrics store is reachable
  - Log directory is writable

An unavailable encoder is a warning: lexical comparisons keep working.`,
		Example: `  # Run diagnostics
  simscore doctor

  # JSON output for scripting
  simscore doctor --json

  # Skip the encoder check
  simscore doctor --skip-encoder`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDoctor(ctx, cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", ui.DetectNoColor(), "Disable colored output")
	cmd.Flags().BoolVar(&opts.skipEncoder, "skip-encoder", false, "Do not try to load the semantic encoder")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Encoder load timeout")

	return cmd
}

func runDoctor(ctx context.Context, cmd *cobra.Command, opts doctorOptions) error {
	cfg := currentConfig()

	info := ui.StatusInfo{
		Version: version.Version,
		Checks: []ui.Check{
			checkConfig(),
			checkAnalyzer(cfg),
			checkEncoder(ctx, cfg, opts),
			checkMetricsStore(cfg),
			checkLogDir(cfg),
		},
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), opts.noColor)
	if opts.jsonOutput {
		if err := renderer.RenderJSON(info); err != nil {
			return err
		}
	} else if err := renderer.Render(info); err != nil {
		return err
	}

	if !info.Healthy() {
		return &reportedError{message: "doctor found failing checks"}
	}
	return nil
}

func checkConfig() ui.Check {
	check := ui.Check{Name: "Configuration", Status: ui.CheckPass}
	switch {
	case configPath != "":
		check.Detail = configPath
	case config.UserConfigExists():
		check.Detail = config.GetUserConfigPath()
	default:
		check.Detail = "defaults"
		check.Suggestion = "run 'simscore config init' to create a config file"
	}
	return check
}

func checkAnalyzer(cfg *config.Config) ui.Check {
	check := ui.Check{Name: "Lexical analyzer"}
	if _, err := analysis.New(cfg.Lexical.Language); err != nil {
		check.Status = ui.CheckFail
		check.Detail = err.Error()
		check.Suggestion = fmt.Sprintf("set lexical.language to one of %v", config.SupportedLanguages)
		return check
	}
	check.Status = ui.CheckPass
	check.Detail = "language " + cfg.Lexical.Language
	return check
}

func checkEncoder(ctx context.Context, cfg *config.Config, opts doctorOptions) ui.Check {
	embedOpts := embedOptions(cfg)
	check := ui.Check{Name: fmt.Sprintf("Semantic encoder (%s)", embedOpts.Provider)}

	if opts.skipEncoder {
		check.Status = ui.CheckWarn
		check.Detail = "skipped"
		return check
	}

	handle := embed.NewHandleFromOptions(embedOpts, cfg.Embeddings.RetryAfter)
	defer func() { _ = handle.Close() }()

	loadCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if err := handle.Preload(loadCtx); err != nil {
		check.Status = ui.CheckWarn
		check.Detail = err.Error()
		var se *simerrors.SimError
		if errors.As(err, &se) && se.Cause != nil {
			check.Detail = fmt.Sprintf("%s: %v", se.Message, se.Cause)
		}
		check.Suggestion = encoderHint(embedOpts)
		return check
	}

	st := handle.Status()
	check.Status = ui.CheckPass
	check.Detail = fmt.Sprintf("%s, %d dimensions", st.Model, st.Dimensions)
	return check
}

func checkMetricsStore(cfg *config.Config) ui.Check {
	check := ui.Check{Name: "Metrics store"}
	if !cfg.Telemetry.Enabled {
		check.Status = ui.CheckPass
		check.Detail = "disabled"
		return check
	}

	store, err := telemetry.OpenSQLiteStore(cfg.Telemetry.DBPath)
	if err == nil {
		err = store.Ping()
		_ = store.Close()
	}
	if err != nil {
		check.Status = ui.CheckWarn
		check.Detail = err.Error()
		check.Suggestion = "metrics will be kept in memory only; check telemetry.db_path"
		return check
	}

	check.Status = ui.CheckPass
	check.Detail = cfg.Telemetry.DBPath
	if fi, err := os.Stat(cfg.Telemetry.DBPath); err == nil {
		check.Detail += " (" + ui.FormatBytes(fi.Size()) + ")"
	}
	return check
}

func checkLogDir(cfg *config.Config) ui.Check {
	dir := logging.DefaultLogDir()
	if cfg.Logging.File != "" {
		dir = filepath.Dir(cfg.Logging.File)
	}

	check := ui.Check{Name: "Log directory", Detail: dir}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		check.Status = ui.CheckFail
		check.Detail = err.Error()
		return check
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		check.Status = ui.CheckFail
		check.Detail = err.Error()
		check.Suggestion = "set logging.file to a writable location"
		return check
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	check.Status = ui.CheckPass
	return check
}

// encoderHint says what to fix for the configured provider.
func encoderHint(opts embed.Options) string {
	switch opts.Provider {
	case embed.ProviderOpenAI:
		return "check embeddings.openai_base_url and the API key; lexical comparisons still work"
	case embed.ProviderStatic:
		return "the static encoder needs no setup; please report this failure"
	default:
		return fmt.Sprintf("start Ollama at %s and run 'ollama pull %s', or set embeddings.provider to static",
			opts.OllamaHost, opts.DisplayModel())
	}
}
