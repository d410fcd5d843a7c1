// Package keys turns keyboard input into pause, resume and quit requests for
// a running playback session.
package keys

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"readaloud/internal/cli/scheme/colours"
)

// Mode selects how input is read.
type Mode int

const (
	// ModeRaw reacts to single key presses on a terminal in raw mode.
	ModeRaw Mode = iota
	// ModeLine reads whole lines and needs Enter after each command.
	ModeLine
)

func (m Mode) String() string {
	switch m {
	case ModeRaw:
		return "raw"
	case ModeLine:
		return "line"
	default:
		return "unknown"
	}
}

// ctrlC arrives as a plain byte once the terminal is in raw mode.
const ctrlC = 3

// Controls is what the listener drives. It is satisfied by *playback.Session.
type Controls interface {
	Pause() bool
	Resume() bool
	Quit()
}

type command int

const (
	cmdNone command = iota
	cmdPause
	cmdResume
	cmdQuit
)

// Listener reads control commands from one input.
type Listener struct {
	in      io.Reader
	out     io.Writer
	mode    Mode
	newline string
}

// NewListener creates a listener reading from in. Feedback is written to out,
// which may be nil.
func NewListener(in io.Reader, out io.Writer, mode Mode) *Listener {
	newline := "\n"
	if mode == ModeRaw {
		newline = "\r\n"
	}
	if out == nil {
		out = io.Discard
	}
	return &Listener{in: in, out: out, mode: mode, newline: newline}
}

// Hint describes the available keys for the listener's mode.
func (l *Listener) Hint() string {
	if l.mode == ModeRaw {
		return "Press 'p' to pause, 'r' to resume, 'q' to quit"
	}
	return "Type 'p' to pause, 'r' to resume or 'q' to quit, then Enter"
}

// Listen applies commands to c until a quit command is read, the input ends
// or ctx is done. The end of input is not a quit: the session keeps playing.
// A read blocked when ctx ends is abandoned, not interrupted.
func (l *Listener) Listen(ctx context.Context, c Controls) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	commands := make(chan command)
	errc := make(chan error, 1)

	go func() {
		errc <- l.read(ctx, commands)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case cmd := <-commands:
			if l.apply(cmd, c) {
				return nil
			}
		}
	}
}

func (l *Listener) read(ctx context.Context, commands chan<- command) error {
	var err error
	if l.mode == ModeRaw {
		err = l.readRaw(ctx, commands)
	} else {
		err = l.readLines(ctx, commands)
	}

	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		logrus.WithField("mode", l.mode.String()).Debug("Control input closed")
		return nil
	}
	return fmt.Errorf("failed to read controls: %w", err)
}

func (l *Listener) readRaw(ctx context.Context, commands chan<- command) error {
	buf := make([]byte, 1)
	for {
		n, err := l.in.Read(buf)
		if n == 1 {
			if cmd := parseKey(buf[0]); cmd != cmdNone {
				if err := send(ctx, commands, cmd); err != nil {
					return err
				}
			}
		}
		if err != nil {
			return err
		}
	}
}

func (l *Listener) readLines(ctx context.Context, commands chan<- command) error {
	scanner := bufio.NewScanner(l.in)
	for scanner.Scan() {
		cmd := parseLine(scanner.Text())
		if cmd == cmdNone {
			if strings.TrimSpace(scanner.Text()) != "" {
				colours.Info.Fprintf(l.out, "ℹ️  %s%s", l.Hint(), l.newline)
			}
			continue
		}
		if err := send(ctx, commands, cmd); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func send(ctx context.Context, commands chan<- command, cmd command) error {
	select {
	case commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply runs one command and reports whether the listener is done.
func (l *Listener) apply(cmd command, c Controls) bool {
	switch cmd {
	case cmdPause:
		if c.Pause() {
			colours.Warning.Fprintf(l.out, "⏸️  Paused%s", l.newline)
		}
	case cmdResume:
		if c.Resume() {
			colours.Success.Fprintf(l.out, "▶️  Resumed%s", l.newline)
		}
	case cmdQuit:
		c.Quit()
		colours.Warning.Fprintf(l.out, "⏹️  Stopped%s", l.newline)
		return true
	}
	return false
}

func parseKey(b byte) command {
	switch b {
	case 'p', 'P':
		return cmdPause
	case 'r', 'R':
		return cmdResume
	case 'q', 'Q', ctrlC:
		return cmdQuit
	default:
		return cmdNone
	}
}

func parseLine(line string) command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "p", "pause":
		return cmdPause
	case "r", "resume":
		return cmdResume
	case "q", "quit", "s", "stop":
		return cmdQuit
	default:
		return cmdNone
	}
}
