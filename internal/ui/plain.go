package ui

import (
	"fmt"
	"io"
	"sync"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// PlainPrinter writes key: value lines without ANSI codes (for CI/pipes).
type PlainPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainPrinter creates a plain text printer.
func NewPlainPrinter(out io.Writer) *PlainPrinter {
	return &PlainPrinter{out: out}
}

// PrintResult implements Printer.
func (p *PlainPrinter) PrintResult(v ResultView) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintf(p.out, "score: %.4f\n", v.Score)
	_, _ = fmt.Fprintf(p.out, "percentage: %s\n", v.Percentage)
	_, _ = fmt.Fprintf(p.out, "method: %s\n", v.Method)
}

// PrintError implements Printer.
func (p *PlainPrinter) PrintError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprint(p.out, simerrors.FormatForCLI(err))
}
