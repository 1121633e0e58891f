// Package progress defines the reporting collaborator injected into each
// pipeline stage. Stages never write to a process-wide console; they receive
// a Reporter so runs can be silent (tests) or styled (CLI).
package progress

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Reporter receives stage lifecycle events and log lines from the pipeline.
type Reporter interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	StartStage(name string, total int)
	Advance()
	EndStage()
}

// Nop is a Reporter that discards everything. Useful in tests.
type Nop struct{}

func (Nop) Infof(string, ...any)    {}
func (Nop) Warnf(string, ...any)    {}
func (Nop) StartStage(string, int)  {}
func (Nop) Advance()                {}
func (Nop) EndStage()               {}

var (
	stageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// Console is a Reporter that writes styled progress lines to a writer.
// Stage progress is printed in 10% increments to keep logs readable when
// sweeping large rasters.
type Console struct {
	w         io.Writer
	stage     string
	total     int
	done      int
	lastTenth int
}

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Infof prints an informational line.
func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

// Warnf prints a highlighted warning line.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintln(c.w, warnStyle.Render(fmt.Sprintf(format, args...)))
}

// StartStage begins a named stage with a known amount of work.
func (c *Console) StartStage(name string, total int) {
	c.stage = name
	c.total = total
	c.done = 0
	c.lastTenth = -1
	fmt.Fprintln(c.w, stageStyle.Render(name))
}

// Advance records one completed unit of work for the current stage.
func (c *Console) Advance() {
	c.done++
	if c.total <= 0 {
		return
	}
	tenth := c.done * 10 / c.total
	if tenth != c.lastTenth {
		c.lastTenth = tenth
		fmt.Fprintf(c.w, "  %3d%% (%d/%d)\n", c.done*100/c.total, c.done, c.total)
	}
}

// EndStage marks the current stage as finished.
func (c *Console) EndStage() {
	fmt.Fprintln(c.w, doneStyle.Render(fmt.Sprintf("%s: done", c.stage)))
	c.stage = ""
}
