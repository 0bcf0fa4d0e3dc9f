//go:build !windows

package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

func startPTY(cmd *exec.Cmd, cfg Config) (io.WriteCloser, *os.File, error) {
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(cfg.Rows),
		Cols: uint16(cfg.Cols),
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.Raw {
		// Raw mode on the master disables echo for the whole pty, so typed
		// input does not show up in the output.
		if _, err := term.MakeRaw(int(ptmx.Fd())); err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			_ = ptmx.Close()
			return nil, nil, fmt.Errorf("make pty raw: %w", err)
		}
	}
	return nopCloser{ptmx}, ptmx, nil
}

// nopCloser keeps the input side from closing the pty master, which is
// also the output side and is closed by Process.Close.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// isHangup reports whether err is the EIO a pty master returns once the
// child side is closed.
func isHangup(err error) bool {
	return errors.Is(err, syscall.EIO)
}
