// Package progress prints one line per build event, so an operator
// can follow a build as it runs. The exact format is not something
// other tools should parse.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	startStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer writes build event lines to a writer.
// Its methods are safe to call from concurrently running jobs.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	quiet bool
}

// NewPrinter creates a Printer writing to w.
// Styling is turned on only when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	return &Printer{w: w, color: color}
}

// Quiet suppresses everything except failures.
func (p *Printer) Quiet() *Printer {
	p.quiet = true
	return p
}

// Start reports that a target's recipe began running.
func (p *Printer) Start(target string) {
	p.line(startStyle, "make", target, "")
}

// Done reports that a target was built.
func (p *Printer) Done(target string) {
	p.line(doneStyle, "done", target, "")
}

// Fail reports that a target's recipe failed.
func (p *Printer) Fail(target string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tag := "fail"
	if p.color {
		tag = failStyle.Render(tag)
	}
	fmt.Fprintf(p.w, "%s %s: %v\n", tag, target, err)
}

// Skip reports that a target was already up to date.
func (p *Printer) Skip(target string) {
	p.line(skipStyle, "skip", target, "up to date")
}

func (p *Printer) line(style lipgloss.Style, tag, target, note string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.color {
		tag = style.Render(tag)
	}
	if note != "" {
		fmt.Fprintf(p.w, "%s %s (%s)\n", tag, target, note)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", tag, target)
}
