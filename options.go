package clifford

import (
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cboone/clifford/internal/normalize"
)

type options struct {
	args        []string
	env         []string
	dir         string
	debug       bool
	replacers   []Replacer
	readTimeout time.Duration
	width       int
	height      int
	history     int
	pty         bool
	rawPTY      bool
	killGrace   time.Duration
	exitDrain   time.Duration
	logger      *zap.Logger
}

// Option configures a Session created by Start or Open, or a Reader
// created by NewReader. Process options are ignored by NewReader.
type Option func(*options)

// Replacer rewrites normalized output before it reaches the virtual
// screen, to mask rendering differences between platforms.
type Replacer = normalize.Replacer

// ReplaceText returns a Replacer substituting every old with new.
func ReplaceText(old, new string) Replacer {
	return func(s string) string {
		return strings.ReplaceAll(s, old, new)
	}
}

// ReplaceRegexp returns a Replacer applying re.ReplaceAllString.
func ReplaceRegexp(re *regexp.Regexp, repl string) Replacer {
	return func(s string) string {
		return re.ReplaceAllString(s, repl)
	}
}

// WithArgs sets the arguments passed to the command.
func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = args
	}
}

// WithEnv appends environment variables to the process environment.
// Each entry should be in "KEY=VALUE" format.
func WithEnv(env ...string) Option {
	return func(o *options) {
		o.env = append(o.env, env...)
	}
}

// WithDir sets the working directory for the command.
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithDebug logs every chunk and every rendered frame at debug level. It
// never changes what waits match. CLIFFORD_DEBUG=1 turns it on by default.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithReplacers appends substitutions applied, in order, to normalized
// output.
func WithReplacers(replacers ...Replacer) Option {
	return func(o *options) {
		o.replacers = append(o.replacers, replacers...)
	}
}

// WithReadTimeout bounds every wait. A value <= 0 removes the bound.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithoutReadTimeout removes the bound on waits; they end only on a match,
// on close, or when their context ends. Useful on slow CI machines.
func WithoutReadTimeout() Option {
	return WithReadTimeout(0)
}

// WithSize sets the terminal width and height. The width is also the
// virtual screen width; the height is the window size a pty reports.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// WithHistory sets how many rows the virtual screen keeps before output
// scrolls off its top.
func WithHistory(rows int) Option {
	return func(o *options) {
		o.history = rows
	}
}

// WithPTY runs the command on a pseudo-terminal instead of pipes. Programs
// that check isatty then draw as they would for a person; stdout and
// stderr are merged by the terminal.
func WithPTY() Option {
	return func(o *options) {
		o.pty = true
	}
}

// WithRawPTY is WithPTY with the terminal in raw mode, so typed input is
// not echoed into the output.
func WithRawPTY() Option {
	return func(o *options) {
		o.pty = true
		o.rawPTY = true
	}
}

// WithKillGrace sets how long Kill waits after SIGTERM before SIGKILL.
func WithKillGrace(d time.Duration) Option {
	return func(o *options) {
		o.killGrace = d
	}
}

// WithExitDrain sets how long output may stay open after the process
// exits. A background child that inherited stdout keeps it open; once the
// period is over the output is treated as closed, so pending waits end
// with a *PrematureCloseError and UntilClose returns.
func WithExitDrain(d time.Duration) Option {
	return func(o *options) {
		o.exitDrain = d
	}
}

// WithLogger sets the logger. Sessions log their lifecycle at info level
// and frames at debug level when debugging is on.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WaitOption configures a single wait.
type WaitOption func(*waitOptions)

type waitOptions struct {
	timeout time.Duration
	set     bool
}

// WithinTimeout overrides the read timeout for a single wait. A value <= 0
// removes the bound for that wait.
func WithinTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.timeout = d
		o.set = true
	}
}

// waitTimeout resolves the timeout of one wait; 0 means unbounded.
func waitTimeout(def time.Duration, wopts []WaitOption) time.Duration {
	wo := waitOptions{}
	for _, o := range wopts {
		o(&wo)
	}
	d := def
	if wo.set {
		d = wo.timeout
	}
	if d < 0 {
		d = 0
	}
	return d
}

const (
	defaultWidth       = 120
	defaultHeight      = 24
	defaultHistory     = 1000
	defaultReadTimeout = 5 * time.Second
	defaultKillGrace   = 2 * time.Second
	defaultExitDrain   = 250 * time.Millisecond
)

func defaultOptions() options {
	return options{
		debug:       envTruthy("CLIFFORD_DEBUG"),
		readTimeout: defaultReadTimeout,
		width:       defaultWidth,
		height:      defaultHeight,
		history:     defaultHistory,
		killGrace:   defaultKillGrace,
		exitDrain:   defaultExitDrain,
	}
}

func resolveOptions(userOpts []Option) options {
	opts := defaultOptions()
	for _, o := range userOpts {
		o(&opts)
	}
	if opts.width <= 0 {
		opts.width = defaultWidth
	}
	if opts.height <= 0 {
		opts.height = defaultHeight
	}
	if opts.exitDrain <= 0 {
		opts.exitDrain = defaultExitDrain
	}
	if opts.history < opts.height {
		opts.history = opts.height
	}
	return opts
}

// newLogger returns the configured logger, a development logger on stderr
// when debugging without one, or a no-op logger.
func (o options) newLogger() *zap.Logger {
	if o.logger != nil {
		return o.logger
	}
	if o.debug {
		if l, err := zap.NewDevelopment(); err == nil {
			return l
		}
	}
	return zap.NewNop()
}

// envTruthy returns true if the variable is set to a truthy value.
func envTruthy(name string) bool {
	v := os.Getenv(name)
	return v == "1" || v == "true" || v == "yes"
}
