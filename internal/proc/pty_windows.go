//go:build windows

package proc

import (
	"errors"
	"io"
	"os"
	"os/exec"
)

var errPTYUnsupported = errors.New("pty mode is not supported on windows")

func startPTY(*exec.Cmd, Config) (io.WriteCloser, *os.File, error) {
	return nil, nil, errPTYUnsupported
}

func isHangup(error) bool { return false }
