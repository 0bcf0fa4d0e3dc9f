//go:build !windows

package proc

import (
	"errors"
	"os"
	"syscall"
)

// terminate sends SIGTERM, returning nil if the process has already
// exited (os.ErrProcessDone).
func terminate(p *os.Process) error {
	err := p.Signal(syscall.SIGTERM)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
