package clifford

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cboone/clifford/internal/proc"
)

// Session is a running command whose merged stdout and stderr are rendered
// on a virtual screen. Create one with Start and release it with Close.
type Session struct {
	id        string
	command   string
	args      []string
	timeout   time.Duration
	exitDrain time.Duration

	proc   *proc.Process
	reader *Reader
	log    *zap.Logger
	group  errgroup.Group

	closeOnce sync.Once
	closeErr  error
}

// Start runs command and begins rendering its output. It returns a
// *SpawnError if the command cannot be found or started.
//
// The context bounds the lifetime of the process; cancelling it kills the
// process. Waits take their own contexts.
func Start(ctx context.Context, command string, opts ...Option) (*Session, error) {
	o := resolveOptions(opts)

	id := uuid.NewString()
	log := o.newLogger().With(zap.String("session_id", id), zap.String("command", command))

	p, err := proc.Start(ctx, command, proc.Config{
		Args:      o.args,
		Env:       o.env,
		Dir:       o.dir,
		PTY:       o.pty,
		Cols:      o.width,
		Rows:      o.height,
		Raw:       o.rawPTY,
		KillGrace: o.killGrace,
	})
	if err != nil {
		var startErr *proc.StartError
		if errors.As(err, &startErr) {
			err = startErr.Err
		}
		log.Warn("spawn failed", zap.Strings("args", o.args), zap.Error(err))
		return nil, &SpawnError{Command: command, Args: o.args, Err: err}
	}

	s := &Session{
		id:        id,
		command:   command,
		args:      o.args,
		timeout:   o.readTimeout,
		exitDrain: o.exitDrain,
		proc:      p,
		reader:    newReader(p.Output(), o, log),
		log:       log,
	}
	s.group.Go(s.reader.run)
	s.group.Go(s.wait)

	log.Info("process started",
		zap.Strings("args", o.args),
		zap.Int("pid", p.Pid()),
		zap.Bool("pty", o.pty),
	)
	return s, nil
}

// wait tracks the exit. Output still open a drain period later belongs to
// a background child, and is cancelled so waits see the close.
func (s *Session) wait() error {
	err := s.proc.Wait()
	s.log.Info("process exited", zap.Int("exit_code", s.proc.ExitCode()))

	drain := time.NewTimer(s.exitDrain)
	defer drain.Stop()
	select {
	case <-s.reader.Done():
	case <-drain.C:
		s.log.Debug("output still open after exit", zap.Duration("drain", s.exitDrain))
		s.proc.CancelOutput()
	}

	if err == nil || proc.IsExitError(err) {
		return nil
	}
	return fmt.Errorf("clifford: wait: %w", err)
}

// ID returns the unique id of the session, as logged.
func (s *Session) ID() string {
	return s.id
}

// Type writes text followed by a line feed, as if typed and submitted.
func (s *Session) Type(text string) error {
	if err := s.proc.Write([]byte(text + "\n")); err != nil {
		return fmt.Errorf("clifford: type: %w", err)
	}
	return nil
}

// Press writes the byte sequences of keys in one write.
func (s *Session) Press(keys ...Key) error {
	if err := s.proc.Write(keyBytes(keys)); err != nil {
		return fmt.Errorf("clifford: press: %w", err)
	}
	return nil
}

// Write sends raw bytes to the process input.
func (s *Session) Write(b []byte) (int, error) {
	if err := s.proc.Write(b); err != nil {
		return 0, fmt.Errorf("clifford: write: %w", err)
	}
	return len(b), nil
}

// Until waits for m against the output drawn since the previous wait.
// See Reader.Until.
func (s *Session) Until(ctx context.Context, m Matcher, opts ...WaitOption) (string, error) {
	text, err := s.reader.Until(ctx, m, opts...)
	return text, s.annotate(ctx, err)
}

// FindByText returns the bottom-most screen line m matches, waiting for
// one if needed. See Reader.FindByText.
func (s *Session) FindByText(ctx context.Context, m Matcher, opts ...WaitOption) (string, error) {
	line, err := s.reader.FindByText(ctx, m, opts...)
	return line, s.annotate(ctx, err)
}

// annotate adds the exit status to a premature close. The output usually
// closes just before the exit is reaped, so it waits for the exit, but no
// longer than the drain period: a process may close its output and keep
// running.
func (s *Session) annotate(ctx context.Context, err error) error {
	var closeErr *PrematureCloseError
	if !errors.As(err, &closeErr) {
		return err
	}
	timer := time.NewTimer(s.exitDrain)
	defer timer.Stop()
	select {
	case <-s.proc.Done():
		closeErr.ExitCode = s.proc.ExitCode()
	case <-timer.C:
	case <-ctx.Done():
	}
	return err
}

// UntilClose waits until the process has exited and its output has been
// rendered. Output held open by a background child is given up on after
// the exit drain period (see WithExitDrain).
func (s *Session) UntilClose(ctx context.Context) error {
	for _, done := range []<-chan struct{}{s.proc.Done(), s.reader.Done()} {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ReadScreen returns the whole virtual screen. See Reader.ReadScreen.
func (s *Session) ReadScreen() string {
	return s.reader.ReadScreen()
}

// Screen captures the virtual screen.
func (s *Session) Screen() *Screen {
	return s.reader.Screen()
}

// Output returns everything the process printed so far.
func (s *Session) Output() string {
	return s.reader.Output()
}

// Lines yields raw output lines. See Reader.Lines.
func (s *Session) Lines(ctx context.Context) iter.Seq[string] {
	return s.reader.Lines(ctx)
}

// Kill asks the process to stop: SIGTERM, then SIGKILL after the kill
// grace period. It returns without waiting; use UntilClose for that.
func (s *Session) Kill() error {
	if err := s.proc.Kill(); err != nil {
		return fmt.Errorf("clifford: kill: %w", err)
	}
	return nil
}

// Done is closed once the process has exited.
func (s *Session) Done() <-chan struct{} {
	return s.proc.Done()
}

// ExitCode returns the exit status, or -1 while running or when killed by
// a signal.
func (s *Session) ExitCode() int {
	return s.proc.ExitCode()
}

// Close kills the process if it is still running, waits for it, and stops
// rendering. Pending waits return a *PrematureCloseError. Calling Close
// again returns the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		killErr := s.proc.Close()
		s.closeErr = errors.Join(killErr, s.group.Wait())
		s.proc.Release()
		s.log.Info("session closed", zap.Error(s.closeErr))
	})
	return s.closeErr
}

func (s *Session) String() string {
	state := "running"
	if s.proc.Exited() {
		state = fmt.Sprintf("exited (%d)", s.proc.ExitCode())
	}
	return fmt.Sprintf("[clifford session: %s %q with args %q]", state, s.command, s.args)
}
