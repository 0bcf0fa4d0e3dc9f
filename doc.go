// Package clifford drives interactive command-line programs from Go code
// and tests.
//
// clifford starts a real process, renders its merged stdout and stderr on
// a virtual terminal, writes input to it, and waits for text to appear on
// the rendered screen. Because output is rendered rather than read raw,
// spinners, progress bars and prompts that redraw themselves with cursor
// movement are seen the way a person would see them.
//
// # Quick Start
//
//	func TestMyApp(t *testing.T) {
//		term := clifford.Open(t, "./my-app")
//		term.WaitFor(clifford.Text("Name:"))
//		term.Type("Alice")
//		term.WaitFor(clifford.Text("Hello, Alice"))
//	}
//
// [Open] binds a [Session] to a test and closes it through t.Cleanup.
// Outside of tests, use [Start] and [Session.Close], or [NewReader] to
// render any [io.Reader].
//
// # Waiting
//
// [Session.Until] (and [Terminal.WaitFor]) wait until a [Matcher] matches
// the text drawn since the previous wait returned. Output that arrived
// before the call still counts, and output consumed by one wait is not
// offered to the next, so a sequence of waits steps through the output in
// order. When part of the screen is redrawn, only what changed is offered.
//
// A wait ends in one of three ways besides a match:
//
//   - the output closes: [*PrematureCloseError], matching [ErrClosed]
//   - the read timeout elapses: [*TimeoutError], matching [ErrTimeout]
//   - its context ends: the context's error
//
// The read timeout defaults to 5s. Change it with [WithReadTimeout], remove
// it with [WithoutReadTimeout], or override it per call with
// [WithinTimeout].
//
// Output counts as closed once the process has exited and its output has
// drained. A background child that inherited stdout can keep the output
// open; a Session gives up on it after a short drain period, set with
// [WithExitDrain].
//
// [Session.FindByText] returns the bottom-most screen line a matcher
// matches, and [Session.ReadScreen] returns the whole screen. Neither
// affects what the next wait sees.
//
// Built-in matchers include [Text], [Regexp], [Pattern], [Not], [All] and
// [Any].
//
// # Terminals
//
// By default the process runs on pipes. [WithPTY] runs it on a
// pseudo-terminal instead, so programs that check isatty draw as they
// would for a person, and keys such as [Ctrl]('c') reach it as signals.
// [WithRawPTY] additionally turns off echo and line editing.
//
// [WithReplacers] rewrites normalized output before it is rendered, to
// mask differences between platforms or runs.
//
// # Snapshots
//
// [Terminal.MatchSnapshot] and [Screen.MatchSnapshot] compare screen content to
// golden files under testdata. Set CLIFFORD_UPDATE=1 to create or update golden
// files.
//
// # Diagnostics
//
// [Terminal] failures report the expected matcher, the timeout or exit
// status, and recent screen captures (oldest to newest).
//
// [WithDebug], or CLIFFORD_DEBUG=1, logs every output chunk and every
// rendered frame through the zap logger set with [WithLogger], or a
// development logger on stderr.
package clifford
