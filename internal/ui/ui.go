// Package ui renders comparison results for terminals and pipes, and hosts
// the interactive comparison TUI.
package ui

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// ResultView is one comparison as shown to a user.
type ResultView struct {
	Text1      string
	Text2      string
	Score      float64
	Method     string
	Percentage string
	Duration   time.Duration
}

// Printer writes comparison results.
type Printer interface {
	// PrintResult writes one result.
	PrintResult(v ResultView)

	// PrintError writes a failure with its suggestion, if any.
	PrintError(err error)
}

// Config configures the UI output.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewPrinter returns a styled printer for interactive terminals and a plain
// one for CI environments, pipes, or when plain output is forced.
func NewPrinter(cfg Config) Printer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainPrinter(cfg.Output)
	}
	return NewStyledPrinter(cfg.Output, cfg.NoColor || DetectNoColor())
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
