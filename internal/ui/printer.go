package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/fisinject/internal/engine"
)

// Printer writes styled output for one-shot commands.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// PrintHeader prints a command banner
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	h := NewHeader(title, command, params)
	h.Width = p.width
	p.Println(h.Render())
}

// PrintResult prints the outcome of one update
func (p *Printer) PrintResult(input string, res engine.Result) {
	p.Println(RenderResult(input, res, p.width))
}

// PrintFailure prints an error box with troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, troubleshooting []string) {
	p.Println(RenderFailure(title, err, troubleshooting, p.width))
}
