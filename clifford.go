package clifford

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

// Terminal is a Session bound to a test. It is created with Open and closed
// automatically via t.Cleanup. Failures stop the test with t.Fatal and a
// description of what was expected and what was on screen.
type Terminal struct {
	t       testing.TB
	session *Session
	recent  []*Screen
}

const failureCaptureHistory = 3

// Open starts command for the duration of the test.
// Cleanup is automatic via t.Cleanup: the process is killed and its output
// drained on every exit path of the test.
func Open(t testing.TB, command string, userOpts ...Option) *Terminal {
	t.Helper()

	s, err := Start(context.Background(), command, userOpts...)
	if err != nil {
		t.Fatalf("clifford: open: %v", err)
	}

	term := &Terminal{t: t, session: s}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return term
}

// Session returns the underlying Session.
func (term *Terminal) Session() *Session {
	return term.session
}

// Type sends text followed by a line feed.
func (term *Terminal) Type(text string) {
	term.t.Helper()
	if err := term.session.Type(text); err != nil {
		term.t.Fatalf("%v", err)
	}
}

// Press sends one or more special keys.
func (term *Terminal) Press(keys ...Key) {
	term.t.Helper()
	if err := term.session.Press(keys...); err != nil {
		term.t.Fatalf("%v", err)
	}
}

// Screen captures the virtual screen.
func (term *Terminal) Screen() *Screen {
	return term.session.Screen()
}

// WaitFor waits until m matches the output drawn since the previous wait
// and returns that output. On timeout or early exit it calls t.Fatal with
// a description of what was expected and recent screen captures.
func (term *Terminal) WaitFor(m Matcher, wopts ...WaitOption) string {
	term.t.Helper()
	text, err := term.session.Until(context.Background(), m, wopts...)
	term.record()
	if err != nil {
		term.fail("wait-for", m, err)
	}
	return text
}

// Find returns the bottom-most screen line m matches, waiting for one the
// way WaitFor does.
func (term *Terminal) Find(m Matcher, wopts ...WaitOption) string {
	term.t.Helper()
	line, err := term.session.FindByText(context.Background(), m, wopts...)
	term.record()
	if err != nil {
		term.fail("find", m, err)
	}
	return line
}

// WaitExit waits for the process to exit and its output to drain, and
// returns its exit code. Useful for testing that a program terminates
// cleanly.
func (term *Terminal) WaitExit(wopts ...WaitOption) int {
	term.t.Helper()

	timeout := waitTimeout(term.session.timeout, wopts)
	ctx, cancel := withTimeout(context.Background(), timeout)
	defer cancel()

	if err := term.session.UntilClose(ctx); err != nil {
		term.record()
		term.t.Fatalf("clifford: wait-exit: timed out after %v\n    process still running\n    recent screen captures (oldest to newest):\n%s",
			timeout, formatRecentScreens(term.recent))
	}
	return term.session.ExitCode()
}

// Kill stops the process without waiting for it.
func (term *Terminal) Kill() {
	term.t.Helper()
	if err := term.session.Kill(); err != nil {
		term.t.Fatalf("%v", err)
	}
}

func (term *Terminal) record() {
	term.recent = appendRecentScreens(term.recent, term.session.Screen(), failureCaptureHistory)
}

func (term *Terminal) fail(op string, m Matcher, err error) {
	term.t.Helper()

	var (
		timeoutErr *TimeoutError
		closeErr   *PrematureCloseError
	)
	switch {
	case errors.As(err, &timeoutErr):
		term.t.Fatalf("clifford: %s: timed out after %v\n    waiting for: %s\n    recent screen captures (oldest to newest):\n%s",
			op, timeoutErr.Timeout, m, formatRecentScreens(term.recent))
	case errors.As(err, &closeErr):
		cause := fmt.Sprintf("process exited unexpectedly (status %d)", closeErr.ExitCode)
		if !term.session.proc.Exited() {
			cause = "output closed while the process is still running"
		}
		term.t.Fatalf("clifford: %s: %s\n    waiting for: %s\n    recent screen captures (oldest to newest):\n%s",
			op, cause, m, formatRecentScreens(term.recent))
	default:
		term.t.Fatalf("clifford: %s: %v", op, err)
	}
}

func appendRecentScreens(screens []*Screen, scr *Screen, max int) []*Screen {
	if scr == nil {
		return screens
	}
	screens = append(screens, scr)
	if len(screens) > max {
		screens = screens[len(screens)-max:]
	}
	return screens
}

func formatRecentScreens(screens []*Screen) string {
	if len(screens) == 0 {
		return "    (no screen captured)"
	}

	var b strings.Builder
	for i, scr := range screens {
		fmt.Fprintf(&b, "    capture %d/%d:\n%s", i+1, len(screens), formatScreenBox(scr))
		if i < len(screens)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// formatScreenBox formats a screen capture with a box border for error messages.
// Widths are measured in terminal cells.
func formatScreenBox(scr *Screen) string {
	if scr == nil {
		return "    (no screen captured)"
	}

	width, _ := scr.Size()
	for _, line := range scr.Lines() {
		width = max(width, runewidth.StringWidth(line))
	}
	if width == 0 {
		width = 80
	}

	var b strings.Builder
	border := strings.Repeat("\u2500", width)

	fmt.Fprintf(&b, "    \u250c%s\u2510\n", border)
	for _, line := range scr.Lines() {
		fmt.Fprintf(&b, "    \u2502%s\u2502\n", runewidth.FillRight(line, width))
	}
	fmt.Fprintf(&b, "    \u2514%s\u2518", border)

	return b.String()
}
