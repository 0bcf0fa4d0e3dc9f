// Package script runs YAML expect-scripts against a command.
//
// A script names the command and a list of steps. Each step either waits
// for output (expect, expect_regexp, find), sends input (type, press), or
// waits for the process to exit with a given status (exit):
//
//	command: ./my-app
//	args: [--color=never]
//	timeout: 10s
//	steps:
//	  - expect: "pick a color"
//	  - type: red
//	  - expect_regexp: '^\s*red$'
//	  - exit: 0
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cboone/clifford"
)

// Script is a parsed expect-script.
type Script struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Env     []string      `yaml:"env"`
	Dir     string        `yaml:"dir"`
	PTY     bool          `yaml:"pty"`
	Raw     bool          `yaml:"raw"`
	Cols    int           `yaml:"cols"`
	Rows    int           `yaml:"rows"`
	Timeout time.Duration `yaml:"timeout"`
	Replace []Replacement `yaml:"replace"`
	Steps   []Step        `yaml:"steps"`
}

// Replacement rewrites output before it is rendered. Exactly one of Text
// and Regexp is set.
type Replacement struct {
	Text   string `yaml:"text"`
	Regexp string `yaml:"regexp"`
	With   string `yaml:"with"`
}

// Step is one action. Exactly one action field is set.
type Step struct {
	Expect       string        `yaml:"expect"`
	ExpectRegexp string        `yaml:"expect_regexp"`
	Find         string        `yaml:"find"`
	Type         *string       `yaml:"type"`
	Press        []string      `yaml:"press"`
	Exit         *int          `yaml:"exit"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Load parses a script. Unknown fields are rejected.
func Load(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the script can run.
func (s *Script) Validate() error {
	if s.Command == "" {
		return errors.New("script: command is required")
	}
	for i, r := range s.Replace {
		if (r.Text == "") == (r.Regexp == "") {
			return fmt.Errorf("script: replace %d: set exactly one of text and regexp", i+1)
		}
		if r.Regexp != "" {
			if _, err := regexp.Compile(r.Regexp); err != nil {
				return fmt.Errorf("script: replace %d: %w", i+1, err)
			}
		}
	}
	for i, st := range s.Steps {
		if n := st.actions(); n != 1 {
			return fmt.Errorf("script: step %d: want exactly one action, got %d", i+1, n)
		}
		if st.ExpectRegexp != "" {
			if _, err := regexp.Compile(st.ExpectRegexp); err != nil {
				return fmt.Errorf("script: step %d: %w", i+1, err)
			}
		}
		for _, name := range st.Press {
			if _, err := ParseKey(name); err != nil {
				return fmt.Errorf("script: step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Expect != "",
		st.ExpectRegexp != "",
		st.Find != "",
		st.Type != nil,
		len(st.Press) > 0,
		st.Exit != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Options returns the session options the script asks for.
func (s *Script) Options() []clifford.Option {
	opts := []clifford.Option{
		clifford.WithArgs(s.Args...),
		clifford.WithEnv(s.Env...),
		clifford.WithDir(s.Dir),
		clifford.WithSize(s.Cols, s.Rows),
	}
	if s.Timeout > 0 {
		opts = append(opts, clifford.WithReadTimeout(s.Timeout))
	}
	switch {
	case s.Raw:
		opts = append(opts, clifford.WithRawPTY())
	case s.PTY:
		opts = append(opts, clifford.WithPTY())
	}
	for _, r := range s.Replace {
		if r.Regexp != "" {
			opts = append(opts, clifford.WithReplacers(clifford.ReplaceRegexp(regexp.MustCompile(r.Regexp), r.With)))
		} else {
			opts = append(opts, clifford.WithReplacers(clifford.ReplaceText(r.Text, r.With)))
		}
	}
	return opts
}

// StepError reports the step a script failed on.
type StepError struct {
	Index  int // 1-based
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Action, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Run starts the command and executes every step in order, reporting each
// completed step to out. Extra options are applied after the script's own.
// The process is closed when Run returns.
func (s *Script) Run(ctx context.Context, out io.Writer, extra ...clifford.Option) (err error) {
	opts := append(s.Options(), extra...)
	sess, err := clifford.Start(ctx, s.Command, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); err == nil {
			err = cerr
		}
	}()

	for i, st := range s.Steps {
		action := st.describe()
		if err := st.run(ctx, sess); err != nil {
			return &StepError{Index: i + 1, Action: action, Err: err}
		}
		fmt.Fprintf(out, "ok %d - %s\n", i+1, action)
	}
	return nil
}

func (st Step) run(ctx context.Context, sess *clifford.Session) error {
	var wopts []clifford.WaitOption
	if st.Timeout > 0 {
		wopts = append(wopts, clifford.WithinTimeout(st.Timeout))
	}

	switch {
	case st.Expect != "":
		_, err := sess.Until(ctx, clifford.Text(st.Expect), wopts...)
		return err
	case st.ExpectRegexp != "":
		_, err := sess.Until(ctx, clifford.Regexp(st.ExpectRegexp), wopts...)
		return err
	case st.Find != "":
		_, err := sess.FindByText(ctx, clifford.Text(st.Find), wopts...)
		return err
	case st.Type != nil:
		return sess.Type(*st.Type)
	case len(st.Press) > 0:
		keys := make([]clifford.Key, 0, len(st.Press))
		for _, name := range st.Press {
			k, err := ParseKey(name)
			if err != nil {
				return err
			}
			keys = append(keys, k)
		}
		return sess.Press(keys...)
	case st.Exit != nil:
		return waitExit(ctx, sess, *st.Exit, st.Timeout)
	}
	return errors.New("empty step")
}

func waitExit(ctx context.Context, sess *clifford.Session, want int, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sess.UntilClose(ctx); err != nil {
		return fmt.Errorf("process still running: %w", err)
	}
	if got := sess.ExitCode(); got != want {
		return fmt.Errorf("exit status %d, want %d", got, want)
	}
	return nil
}

func (st Step) describe() string {
	switch {
	case st.Expect != "":
		return fmt.Sprintf("expect %q", st.Expect)
	case st.ExpectRegexp != "":
		return fmt.Sprintf("expect regexp %q", st.ExpectRegexp)
	case st.Find != "":
		return fmt.Sprintf("find %q", st.Find)
	case st.Type != nil:
		return fmt.Sprintf("type %q", *st.Type)
	case len(st.Press) > 0:
		return "press " + strings.Join(st.Press, " ")
	case st.Exit != nil:
		return fmt.Sprintf("exit %d", *st.Exit)
	}
	return "empty"
}

var namedKeys = map[string]clifford.Key{
	"enter":     clifford.Enter,
	"escape":    clifford.Escape,
	"esc":       clifford.Escape,
	"tab":       clifford.Tab,
	"backspace": clifford.Backspace,
	"up":        clifford.Up,
	"down":      clifford.Down,
	"left":      clifford.Left,
	"right":     clifford.Right,
	"home":      clifford.Home,
	"end":       clifford.End,
	"pageup":    clifford.PageUp,
	"pagedown":  clifford.PageDown,
	"space":     clifford.Space,
	"delete":    clifford.Delete,
	"f1":        clifford.F1,
	"f2":        clifford.F2,
	"f3":        clifford.F3,
	"f4":        clifford.F4,
	"f5":        clifford.F5,
	"f6":        clifford.F6,
	"f7":        clifford.F7,
	"f8":        clifford.F8,
	"f9":        clifford.F9,
	"f10":       clifford.F10,
	"f11":       clifford.F11,
	"f12":       clifford.F12,
}

// ParseKey resolves a key name such as "enter", "ctrl+c" or "alt+x".
func ParseKey(name string) (clifford.Key, error) {
	lower := strings.ToLower(name)
	if k, ok := namedKeys[lower]; ok {
		return k, nil
	}
	if c, ok := strings.CutPrefix(lower, "ctrl+"); ok && len(c) == 1 {
		return clifford.Ctrl(c[0]), nil
	}
	if strings.HasPrefix(lower, "alt+") && len(name) == len("alt+")+1 {
		return clifford.Alt(name[len(name)-1]), nil
	}
	return "", fmt.Errorf("unknown key %q", name)
}
