// Package cmd provides the CLI commands for simscore.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/simscore/internal/config"
	simerrors "github.com/Aman-CERP/simscore/internal/errors"
	"github.com/Aman-CERP/simscore/internal/logging"
	"github.com/Aman-CERP/simscore/pkg/version"
)

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "simscore.skip-config"

// Global flags and state shared by subcommands.
var (
	configPath     string
	debugMode      bool
	loadedConfig   *config.Config
	loggingCleanup func()
)

// NewRootCmd creates the root command for the simscore CLI.
func NewRootCmd() *cobra.Command {
	configPath = ""
	debugMode = false
	loadedConfig = nil

	cmd := &cobra.Command{
		Use:   "simscore",
		Short: "Score how similar two texts are",
		Long: `simscore compares two texts and returns a similarity score in [-1, 1].

Two methods are available:
  lexical   TF-IDF cosine similarity over stopword-filtered words
  semantic  cosine similarity of sentence embeddings

The scorer is exposed as an HTTP API, an MCP server, a one-shot command,
a batch runner and an interactive terminal client.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("simscore version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.simscore/logs/")

	cmd.PersistentPreRunE = setupConfigAndLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newCompareCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newTUICmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command and prints any failure with its hint.
func Execute() error {
	err := NewRootCmd().Execute()
	var reported *reportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprint(os.Stderr, simerrors.FormatForCLI(err))
	}
	return err
}

// setupConfigAndLogging loads configuration and installs the default logger.
func setupConfigAndLogging(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		return nil
	}

	cfg, err := config.Load(config.LoadOptions{Dir: ".", Path: configPath})
	if err != nil {
		return err
	}
	loadedConfig = cfg

	logCfg := loggingConfig(cfg, debugMode)

	switch cmd.Name() {
	case "mcp":
		// stdout carries JSON-RPC in MCP mode
		cleanup, err := logging.SetupMCPMode(logCfg)
		if err != nil {
			return fmt.Errorf("failed to setup MCP logging: %w", err)
		}
		loggingCleanup = cleanup
		return nil
	case "tui":
		// The alternate screen owns the terminal
		logCfg.WriteToStderr = false
		if logCfg.FilePath == "" {
			logCfg.FilePath = logging.DefaultLogPath()
		}
	case "serve":
	default:
		if !debugMode && logging.LevelFromString(logCfg.Level) < slog.LevelWarn {
			logCfg.Level = "warn"
		}
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if debugMode {
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("command", cmd.Name()),
			slog.String("version", version.Version))
	}
	return nil
}

// loggingConfig maps the logging section onto the logger setup.
func loggingConfig(cfg *config.Config, debug bool) logging.Config {
	if debug {
		return logging.DebugConfig()
	}
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.FilePath = cfg.Logging.File
	if cfg.Logging.MaxSizeMB > 0 {
		lc.MaxSizeMB = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxFiles > 0 {
		lc.MaxFiles = cfg.Logging.MaxFiles
	}
	return lc
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// currentConfig returns the configuration loaded for this invocation.
func currentConfig() *config.Config {
	if loadedConfig == nil {
		return config.NewConfig()
	}
	return loadedConfig
}
