// Package proc starts the process under test with its stdout and stderr
// merged into a single stream, and tracks its exit.
package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/muesli/cancelreader"
)

const defaultKillGrace = 2 * time.Second

// Config describes how to start a process.
type Config struct {
	Args []string
	Env  []string // appended to os.Environ()
	Dir  string

	// PTY runs the process on a pseudo-terminal of Cols x Rows.
	PTY  bool
	Cols int
	Rows int
	// Raw puts the pseudo-terminal in raw mode: no echo, no line editing.
	Raw bool

	// KillGrace is how long Kill waits after SIGTERM before SIGKILL.
	KillGrace time.Duration
}

// StartError reports that the executable could not be found or started.
type StartError struct {
	Name string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Name, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Process is a running child process.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	file   *os.File // read side of the merged output
	output cancelreader.CancelReader
	grace  time.Duration

	writeMu sync.Mutex

	done    chan struct{} // closed exactly once, after cmd.Wait returns
	waitErr error

	killOnce    sync.Once
	killErr     error
	closeOnce   sync.Once
	releaseOnce sync.Once
}

// Start launches name with cfg. The context bounds the lifetime of the
// process, as with exec.CommandContext.
func Start(ctx context.Context, name string, cfg Config) (*Process, error) {
	cmd := exec.CommandContext(ctx, name, cfg.Args...)
	cmd.Dir = cfg.Dir
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	var (
		stdin io.WriteCloser
		out   *os.File
		err   error
	)
	if cfg.PTY {
		stdin, out, err = startPTY(cmd, cfg)
	} else {
		stdin, out, err = startPipes(cmd)
	}
	if err != nil {
		return nil, &StartError{Name: name, Err: err}
	}

	output, err := cancelreader.NewReader(out)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		_ = out.Close()
		return nil, &StartError{Name: name, Err: fmt.Errorf("output reader: %w", err)}
	}

	grace := cfg.KillGrace
	if grace <= 0 {
		grace = defaultKillGrace
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		file:   out,
		output: output,
		grace:  grace,
		done:   make(chan struct{}),
	}
	go p.wait()
	return p, nil
}

// startPipes gives stdout and stderr the same pipe so their writes are
// interleaved in the order the OS delivers them.
func startPipes(cmd *exec.Cmd) (io.WriteCloser, *os.File, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, nil, err
	}
	// The child holds its own copy; ours would keep the pipe open past exit.
	_ = w.Close()
	return stdin, r, nil
}

func (p *Process) wait() {
	p.waitErr = p.cmd.Wait()
	close(p.done)
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Output returns the merged output stream. It reports io.EOF once the
// process has exited and its output is drained, and
// cancelreader.ErrCanceled after Close.
func (p *Process) Output() io.Reader {
	return hangupReader{p.output}
}

// hangupReader reports a pty hangup as io.EOF.
type hangupReader struct {
	r io.Reader
}

func (h hangupReader) Read(b []byte) (int, error) {
	n, err := h.r.Read(b)
	if err != nil && isHangup(err) {
		err = io.EOF
	}
	return n, err
}

// Write sends p to the process input.
func (p *Process) Write(b []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := p.stdin.Write(b); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}

// Done is closed once the process has exited, whether on its own or
// through Kill. Receiving from it after exit never blocks.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns the cmd.Wait error.
func (p *Process) Wait() error {
	<-p.done
	return p.waitErr
}

// ExitCode returns the exit status, -1 when killed by a signal or still
// running.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
	default:
		return -1
	}
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Kill asks the process to terminate: SIGTERM now, SIGKILL if it is still
// running after the grace period. It does not wait for the exit. Calling
// Kill again, or after the process exited, is a no-op.
func (p *Process) Kill() error {
	p.killOnce.Do(func() {
		if p.Exited() {
			return
		}
		p.killErr = terminate(p.cmd.Process)
		go func() {
			select {
			case <-p.done:
			case <-time.After(p.grace):
				_ = p.cmd.Process.Kill()
			}
		}()
	})
	return p.killErr
}

// CancelOutput makes pending and future reads on Output return
// cancelreader.ErrCanceled. A background child that inherited the output
// keeps it open after the process exits; cancelling is how the reader
// stops waiting for it.
func (p *Process) CancelOutput() {
	p.output.Cancel()
}

// Close kills the process, waits for it to exit, closes its input and
// cancels its output. The output descriptors stay open until Release.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.Kill()
		<-p.done
		_ = p.stdin.Close()
		p.CancelOutput()
	})
	return err
}

// Release closes the output descriptors. Call it after Close, once the
// last Read on Output has returned; closing them under a blocked read
// would leave that read waiting forever.
func (p *Process) Release() {
	p.releaseOnce.Do(func() {
		_ = p.output.Close()
		_ = p.file.Close()
	})
}

// IsExitError reports whether err is only the process's non-zero exit.
func IsExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
