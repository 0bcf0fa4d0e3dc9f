//go:build !windows

package proc

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/muesli/cancelreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSh(t *testing.T, script string, cfg Config) *Process {
	t.Helper()
	cfg.Args = []string{"-c", script}
	p, err := Start(context.Background(), "/bin/sh", cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = p.Close()
		p.Release()
	})
	return p
}

func waitDone(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestMergedOutput(t *testing.T) {
	p := startSh(t, "echo out; echo err 1>&2", Config{})

	out, err := io.ReadAll(p.Output())
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", string(out))

	waitDone(t, p)
	assert.Equal(t, 0, p.ExitCode())
}

func TestWriteBeforeOutput(t *testing.T) {
	p := startSh(t, "read line; echo got:$line", Config{})

	require.NoError(t, p.Write([]byte("hello\n")))

	out, err := io.ReadAll(p.Output())
	require.NoError(t, err)
	assert.Equal(t, "got:hello\n", string(out))
}

func TestExitCode(t *testing.T) {
	p := startSh(t, "exit 3", Config{})
	waitDone(t, p)

	assert.Equal(t, 3, p.ExitCode())
	err := p.Wait()
	assert.True(t, IsExitError(err))
}

func TestStartError(t *testing.T) {
	_, err := Start(context.Background(), "definitely-not-a-real-binary-xyz", Config{})
	require.Error(t, err)

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, "definitely-not-a-real-binary-xyz", startErr.Name)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestKillIsIdempotent(t *testing.T) {
	p := startSh(t, "sleep 30", Config{KillGrace: 100 * time.Millisecond})

	require.NoError(t, p.Kill())
	require.NoError(t, p.Kill())
	waitDone(t, p)

	assert.Equal(t, -1, p.ExitCode())
	require.NoError(t, p.Kill())
}

func TestDoneAfterExitDoesNotBlock(t *testing.T) {
	p := startSh(t, "true", Config{})
	waitDone(t, p)

	select {
	case <-p.Done():
	default:
		t.Fatal("Done blocked after exit")
	}
	require.NoError(t, p.Wait())
}

func TestKillEscalates(t *testing.T) {
	p := startSh(t, "trap '' TERM; sleep 30", Config{KillGrace: 50 * time.Millisecond})

	// Let the shell install its trap.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, p.Kill())
	waitDone(t, p)
}

func TestCloseCancelsOutput(t *testing.T) {
	p := startSh(t, "sleep 30", Config{KillGrace: 50 * time.Millisecond})

	errc := make(chan error, 1)
	go func() {
		_, err := p.Output().Read(make([]byte, 16))
		errc <- err
	}()

	require.NoError(t, p.Close())

	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, io.EOF) || errors.Is(err, cancelreader.ErrCanceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("pending read was not released by Close")
	}
}

func TestCancelOutputReleasesInheritedPipe(t *testing.T) {
	// The background sleep keeps the write side open after sh exits.
	p := startSh(t, "sleep 10 & echo started", Config{})
	waitDone(t, p)

	errc := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(p.Output())
		errc <- err
	}()

	p.CancelOutput()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, cancelreader.ErrCanceled)
	case <-time.After(5 * time.Second):
		t.Fatal("read was not released by CancelOutput")
	}
}

func TestPTY(t *testing.T) {
	p, err := Start(context.Background(), "/bin/sh", Config{
		Args: []string{"-c", "stty size; echo done"},
		PTY:  true,
		Cols: 100,
		Rows: 30,
	})
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = p.Close()
		p.Release()
	})

	out, err := io.ReadAll(p.Output())
	require.NoError(t, err)
	assert.Contains(t, string(out), "30 100")
	assert.True(t, strings.HasSuffix(string(out), "done\r\n"))
}
