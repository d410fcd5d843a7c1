package playback

import (
	"fmt"
	"io"

	"readaloud/internal/cli/scheme/colours"
)

// Reporter receives progress notifications from the speaker goroutine.
type Reporter interface {
	// Heading is called when a heading block is reached.
	Heading(text string)
	// Speaking is called right before a sentence is dispatched.
	Speaking(text string)
	// Spoken is called after a sentence finished, with running word counts.
	Spoken(spoken, total int, text string)
}

// ConsoleReporter prints progress the way the CLI shows it.
type ConsoleReporter struct {
	out          io.Writer
	showProgress bool
	highlight    bool
	newline      string
}

// NewConsoleReporter creates a reporter writing to out. When raw is set the
// terminal is in raw mode and lines need an explicit carriage return.
func NewConsoleReporter(out io.Writer, showProgress, highlight, raw bool) *ConsoleReporter {
	newline := "\n"
	if raw {
		newline = "\r\n"
	}
	return &ConsoleReporter{
		out:          out,
		showProgress: showProgress,
		highlight:    highlight,
		newline:      newline,
	}
}

func (r *ConsoleReporter) Heading(text string) {
	if !r.showProgress && !r.highlight {
		return
	}
	colours.Title.Fprintf(r.out, "Heading: %s%s%s", text, r.newline, r.newline)
}

func (r *ConsoleReporter) Speaking(text string) {
	if !r.highlight {
		return
	}
	colours.Highlight.Fprintf(r.out, "▶ %s", text)
	fmt.Fprint(r.out, r.newline)
}

func (r *ConsoleReporter) Spoken(spoken, total int, text string) {
	if !r.showProgress {
		return
	}
	colours.Progress.Fprintf(r.out, "%d/%d words", spoken, total)
	fmt.Fprintf(r.out, ": %s%s%s", text, r.newline, r.newline)
}

type nopReporter struct{}

func (nopReporter) Heading(string)          {}
func (nopReporter) Speaking(string)         {}
func (nopReporter) Spoken(int, int, string) {}
