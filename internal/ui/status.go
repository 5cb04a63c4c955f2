package ui

import (
	"encoding/json"
	"fmt"
	"io"
)

// CheckStatus is the outcome of one doctor check.
type CheckStatus string

// Check outcomes.
const (
	CheckPass CheckStatus = "pass"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// Check is one doctor check.
type Check struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Detail     string      `json:"detail,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// StatusInfo is the doctor report.
type StatusInfo struct {
	Version string  `json:"version"`
	Checks  []Check `json:"checks"`
}

// Healthy reports whether no check failed.
func (s StatusInfo) Healthy() bool {
	for _, c := range s.Checks {
		if c.Status == CheckFail {
			return false
		}
	}
	return true
}

// StatusRenderer displays the doctor report.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays the report to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("simscore doctor "+info.Version))

	for _, c := range info.Checks {
		_, _ = fmt.Fprintf(r.out, "  %s %s", r.renderStatus(c.Status), c.Name)
		if c.Detail != "" {
			_, _ = fmt.Fprintf(r.out, ": %s", r.styles.Label.Render(c.Detail))
		}
		_, _ = fmt.Fprintln(r.out)
		if c.Suggestion != "" && c.Status != CheckPass {
			_, _ = fmt.Fprintf(r.out, "      %s\n", r.styles.Dim.Render(c.Suggestion))
		}
	}
	_, _ = fmt.Fprintln(r.out)

	if info.Healthy() {
		_, _ = fmt.Fprintln(r.out, r.styles.Success.Render("All required checks passed."))
	} else {
		_, _ = fmt.Fprintln(r.out, r.styles.Error.Render("Some checks failed."))
	}
	return nil
}

// RenderJSON outputs the report as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// renderStatus formats a check status with color.
func (r *StatusRenderer) renderStatus(status CheckStatus) string {
	switch status {
	case CheckPass:
		return r.styles.Success.Render("[PASS]")
	case CheckWarn:
		return r.styles.Warning.Render("[WARN]")
	case CheckFail:
		return r.styles.Error.Render("[FAIL]")
	default:
		return "[" + string(status) + "]"
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
