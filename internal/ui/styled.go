package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// StyledPrinter draws results in a bordered panel with a colored score.
type StyledPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

// NewStyledPrinter creates a styled printer.
func NewStyledPrinter(out io.Writer, noColor bool) *StyledPrinter {
	return &StyledPrinter{out: out, styles: GetStyles(noColor)}
}

// PrintResult implements Printer.
func (p *StyledPrinter) PrintResult(v ResultView) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintln(p.out, RenderResult(p.styles, v, 60))
}

// PrintError implements Printer.
func (p *StyledPrinter) PrintError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprint(p.out, p.styles.Error.Render(simerrors.FormatForCLI(err)))
}

// RenderResult renders a result panel of the given width.
func RenderResult(styles Styles, v ResultView, width int) string {
	lines := []string{
		styles.Header.Render("Similarity"),
		"",
		fmt.Sprintf("%s %s  %s",
			styles.Label.Render("Score:"),
			styles.Score(v.Score).Render(fmt.Sprintf("%.4f", v.Score)),
			styles.Dim.Render("("+v.Percentage+")")),
		fmt.Sprintf("%s %s", styles.Label.Render("Method:"), styles.Active.Render(v.Method)),
		scoreBar(styles, v.Score, max(width-8, 10)),
	}
	if v.Duration > 0 {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("took %s", v.Duration.Round(time.Millisecond))))
	}

	return styles.Panel.Width(width).Render(strings.Join(lines, "\n"))
}

// scoreBar draws the score as a filled bar. Negative scores draw empty.
func scoreBar(styles Styles, score float64, width int) string {
	filled := int(max(score, 0) * float64(width))
	filled = min(filled, width)
	return styles.Score(score).Render(strings.Repeat("█", filled)) +
		styles.Dim.Render(strings.Repeat("░", width-filled))
}
