//go:build windows

package tts

import (
	"errors"
	"os"
)

// terminate kills the engine process on Windows, which has no SIGTERM
// equivalent for console processes.
func terminate(p *os.Process) error {
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
