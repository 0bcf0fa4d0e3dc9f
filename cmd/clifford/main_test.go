package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes cmd with args and returns stdout and stderr.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errb bytes.Buffer
	cmd.SetContext(context.Background())
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errb.String(), err
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	requireShell(t)
	path := writeScript(t, `
command: sh
args: ["-c", "printf 'continue? '; read a; echo \"answer: $a\""]
steps:
  - expect: "continue?"
  - type: "y"
  - expect: "answer: y"
  - exit: 0
`)

	out, _, err := runCmd(t, newRootCmd(), "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, `ok 3 - expect "answer: y"`)
	assert.Contains(t, out, "ok 4 - exit 0")
}

func TestRunCommandFailure(t *testing.T) {
	requireShell(t)
	path := writeScript(t, `
command: sh
args: ["-c", "sleep 5"]
steps:
  - expect: "never"
`)

	_, _, err := runCmd(t, newRootCmd(), "run", "--timeout", "100ms", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step 1 (expect "never")`)
	assert.Contains(t, err.Error(), "timed out after 100ms")
}

func TestRunCommandInvalidScript(t *testing.T) {
	path := writeScript(t, "steps: []\n")

	_, _, err := runCmd(t, newRootCmd(), "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command is required")
}

func TestRunCommandDebugLogsFrames(t *testing.T) {
	requireShell(t)
	path := writeScript(t, `
command: sh
args: ["-c", "echo hello"]
steps:
  - expect: hello
`)

	_, errOut, err := runCmd(t, newRootCmd(), "--debug", "run", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "frame")
	assert.Contains(t, errOut, "process started")
}

func TestRenderCommand(t *testing.T) {
	requireShell(t)
	out, _, err := runCmd(t, newRootCmd(), "render", "--", "sh", "-c", `printf 'loading 10%%\rloading 99%%\r\033[2Kdone\n'`)
	require.NoError(t, err)
	assert.Equal(t, "done\n", out)
}

func TestRenderCommandRaw(t *testing.T) {
	requireShell(t)
	out, _, err := runCmd(t, newRootCmd(), "render", "--raw", "--", "sh", "-c", `printf 'a\rb\n'`)
	require.NoError(t, err)
	assert.Equal(t, "a\rb\n", out)
}

func TestRenderCommandExitStatus(t *testing.T) {
	requireShell(t)
	out, _, err := runCmd(t, newRootCmd(), "render", "--", "sh", "-c", "echo partial; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with status 3")
	assert.Equal(t, "partial\n", out)
}
