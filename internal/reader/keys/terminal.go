package keys

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// ErrNoTerminal is returned when no input is left to read controls from.
var ErrNoTerminal = errors.New("no terminal available for controls")

// Terminal is the input controls are read from, put into raw mode when
// possible. Close restores it.
type Terminal struct {
	File  *os.File
	Mode  Mode
	state *term.State
	owned bool
}

// OpenTerminal picks the control input. When stdin already carried the text
// to read, the controlling terminal is opened instead. Raw mode is used unless
// lineOnly is set or the input is not a terminal.
func OpenTerminal(stdinConsumed, lineOnly bool) (*Terminal, error) {
	t := &Terminal{File: os.Stdin, Mode: ModeLine}

	if stdinConsumed || !term.IsTerminal(int(os.Stdin.Fd())) {
		tty, err := os.Open(ttyPath())
		switch {
		case err == nil:
			t.File, t.owned = tty, true
		case stdinConsumed:
			return nil, fmt.Errorf("%w: %v", ErrNoTerminal, err)
		default:
			// stdin is a pipe that still has input: read line commands from it
			logrus.WithError(err).Debug("No controlling terminal, reading controls from stdin")
			return t, nil
		}
	}

	if lineOnly || !term.IsTerminal(int(t.File.Fd())) {
		return t, nil
	}

	state, err := term.MakeRaw(int(t.File.Fd()))
	if err != nil {
		logrus.WithError(err).Warn("Failed to enable raw mode, falling back to line controls")
		return t, nil
	}
	t.state = state
	t.Mode = ModeRaw
	return t, nil
}

// Close restores the terminal state and closes any opened device.
func (t *Terminal) Close() error {
	var errs []error
	if t.state != nil {
		if err := term.Restore(int(t.File.Fd()), t.state); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore terminal: %w", err))
		}
		t.state = nil
	}
	if t.owned {
		if err := t.File.Close(); err != nil {
			errs = append(errs, err)
		}
		t.owned = false
	}
	return errors.Join(errs...)
}

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CONIN$"
	}
	return "/dev/tty"
}
