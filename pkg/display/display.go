// Package display renders the two-line status area and result
// announcements produced while programs, solves and integrations run.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Display receives already formatted text from the engine.
type Display interface {
	// Status shows progress on two lines, replacing what was there.
	Status(line1, line2 string)
	// Result announces a final value; line2 is empty for one-line results.
	Result(line1, line2 string)
}

// Width is the number of characters in a display row.
const Width = 22

// Terminal writes to a terminal or any io.Writer.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	tty   bool
	value func(a ...interface{}) string
	note  func(a ...interface{}) string
	dim   func(a ...interface{}) string
}

// NewTerminal builds a renderer for out. Colors are used only when enabled
// and out is a terminal.
func NewTerminal(out io.Writer, withColor bool) *Terminal {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	t := &Terminal{out: out, tty: tty}
	useColor := withColor && tty
	t.value = painter(useColor, color.FgCyan, color.Bold)
	t.note = painter(useColor, color.FgYellow, color.Bold)
	t.dim = painter(useColor, color.FgBlue)
	return t
}

func painter(enabled bool, attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// columns returns the usable line width.
func (t *Terminal) columns() int {
	if f, ok := t.out.(*os.File); ok && t.tty {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

func (t *Terminal) Status(line1, line2 string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tty {
		w := t.columns() - 1
		fmt.Fprintf(t.out, "\r%s\n%s\x1b[1A\r", pad(t.dim(line1), w), pad(t.dim(line2), w))
		return
	}
	fmt.Fprintln(t.out, t.dim(line1))
	fmt.Fprintln(t.out, t.dim(line2))
}

func (t *Terminal) Result(line1, line2 string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tty {
		fmt.Fprint(t.out, "\r\x1b[J")
	}
	fmt.Fprintln(t.out, t.value(line1))
	if line2 != "" {
		fmt.Fprintln(t.out, t.note(line2))
	}
}

func pad(s string, w int) string {
	if n := w - len(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// Discard ignores everything.
type Discard struct{}

func (Discard) Status(string, string) {}
func (Discard) Result(string, string) {}

// Event is one call recorded by Recorder.
type Event struct {
	Final bool
	Line1 string
	Line2 string
}

// Recorder keeps every call for inspection in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Status(line1, line2 string) {
	r.mu.Lock()
	r.Events = append(r.Events, Event{Line1: line1, Line2: line2})
	r.mu.Unlock()
}

func (r *Recorder) Result(line1, line2 string) {
	r.mu.Lock()
	r.Events = append(r.Events, Event{Final: true, Line1: line1, Line2: line2})
	r.mu.Unlock()
}

// Last returns the most recent event.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Events) == 0 {
		return Event{}, false
	}
	return r.Events[len(r.Events)-1], true
}

// StatusCount counts progress updates.
func (r *Recorder) StatusCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Events {
		if !e.Final {
			n++
		}
	}
	return n
}
