//go:build unix

package tts

import (
	"errors"
	"os"
	"syscall"
)

// terminate asks the engine process to exit on Unix systems
func terminate(p *os.Process) error {
	if err := p.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
