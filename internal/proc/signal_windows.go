//go:build windows

package proc

import (
	"errors"
	"os"
)

// terminate kills the process; Windows has no SIGTERM.
func terminate(p *os.Process) error {
	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
