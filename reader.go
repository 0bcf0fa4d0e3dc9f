package clifford

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/muesli/cancelreader"
	"go.uber.org/zap"

	"github.com/cboone/clifford/internal/eventbus"
	"github.com/cboone/clifford/internal/eventqueue"
	"github.com/cboone/clifford/internal/normalize"
	"github.com/cboone/clifford/internal/screendiff"
	"github.com/cboone/clifford/internal/vterm"
)

const readBufferSize = 4096

// Reader renders an output stream on a virtual screen and answers waits
// against it. Each wait sees only what was drawn since the previous wait
// returned, so successive waits step through the output in order.
//
// Waits are meant to be issued one at a time; concurrent waits share the
// read position and split the output between them.
type Reader struct {
	src       io.Reader
	screen    *vterm.Screen
	width     int
	feeds     *eventbus.Bus[struct{}]
	lines     *eventbus.Bus[string]
	replacers []Replacer
	debug     bool
	timeout   time.Duration
	log       *zap.Logger

	mu     sync.Mutex // guards cursor
	cursor string

	outMu  sync.Mutex
	output strings.Builder

	partial strings.Builder // current unterminated line, pump only

	errMu sync.Mutex
	err   error
	done  chan struct{}
}

// NewReader renders r and starts consuming it in the background. The Reader
// finishes when r returns io.EOF or an error. Process options are ignored.
func NewReader(r io.Reader, opts ...Option) *Reader {
	o := resolveOptions(opts)
	rd := newReader(r, o, o.newLogger())
	go func() { _ = rd.run() }()
	return rd
}

func newReader(r io.Reader, o options, log *zap.Logger) *Reader {
	return &Reader{
		src:       r,
		screen:    vterm.New(o.width, o.history),
		width:     o.width,
		feeds:     eventbus.New[struct{}](),
		lines:     eventbus.New[string](),
		replacers: o.replacers,
		debug:     o.debug,
		timeout:   o.readTimeout,
		log:       log,
		done:      make(chan struct{}),
	}
}

// run pumps the source into the screen until it ends. It is the only
// writer of the screen, and the feed bus is closed after its last publish.
func (r *Reader) run() error {
	defer r.finish()

	var dec normalize.Decoder
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.src.Read(buf)
		if n > 0 {
			r.feed(dec.Decode(buf[:n]))
		}
		if err == nil {
			continue
		}
		if rest := dec.Flush(); rest != "" {
			r.feed(rest)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, cancelreader.ErrCanceled) {
			return nil
		}
		err = fmt.Errorf("clifford: read output: %w", err)
		r.errMu.Lock()
		r.err = err
		r.errMu.Unlock()
		return err
	}
}

// feed normalizes one decoded chunk, writes it to the screen line by line
// and announces every fragment. A trailing fragment without a line feed is
// announced too, so a prompt that waits for input can be matched.
func (r *Reader) feed(text string) {
	r.outMu.Lock()
	r.output.WriteString(text)
	r.outMu.Unlock()

	r.splitLines(text)

	norm := normalize.Text(text, r.replacers)
	if r.debug {
		r.log.Debug("output chunk", zap.String("text", normalize.Printable(text)))
	}

	frags := strings.SplitAfter(norm, "\n")
	for _, frag := range frags {
		if frag == "" {
			continue
		}
		r.screen.Write(frag)
		r.feeds.Publish(struct{}{})
		if r.debug {
			r.log.Debug("frame", zap.String("screen", r.screen.Read()))
		}
	}
}

// splitLines publishes each completed raw output line.
func (r *Reader) splitLines(text string) {
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			r.partial.WriteString(text)
			return
		}
		r.partial.WriteString(text[:i])
		r.lines.Publish(strings.TrimSuffix(r.partial.String(), "\r"))
		r.partial.Reset()
		text = text[i+1:]
	}
}

func (r *Reader) finish() {
	if r.partial.Len() > 0 {
		r.lines.Publish(strings.TrimSuffix(r.partial.String(), "\r"))
		r.partial.Reset()
	}
	r.feeds.Close()
	r.lines.Close()
	close(r.done)
	r.log.Debug("output closed", zap.Error(r.Err()))
}

// advance diffs the screen against the read position and moves it. The
// new text is returned without surrounding whitespace.
func (r *Reader) advance() string {
	cur := r.screen.Read()

	r.mu.Lock()
	defer r.mu.Unlock()
	var text string
	r.cursor, text = screendiff.Diff(r.cursor, cur)
	return strings.TrimSpace(text)
}

// Until waits until m matches the text drawn since the previous wait and
// returns that text, trimmed. Output that arrived before the call counts.
//
// It returns a *PrematureCloseError if the output closes first and a
// *TimeoutError if the read timeout elapses first. If ctx ends first,
// ctx.Err() is returned.
func (r *Reader) Until(ctx context.Context, m Matcher, opts ...WaitOption) (string, error) {
	timeout := waitTimeout(r.timeout, opts)
	waitCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	// Subscribe before the first diff; a frame drawn in between would
	// otherwise go unnoticed.
	q := eventqueue.New[struct{}](r.feeds)
	defer q.Dispose()

	for {
		if text := r.advance(); m.Match(text) {
			return text, nil
		}
		if err := q.Next(waitCtx); err != nil {
			return "", r.waitError(ctx, err, m, timeout)
		}
	}
}

// FindByText returns the bottom-most screen line m matches when m matches
// the current screen. Otherwise, or when m only matches across lines, it
// waits like Until.
func (r *Reader) FindByText(ctx context.Context, m Matcher, opts ...WaitOption) (string, error) {
	scr := r.Screen()
	if m.Match(scr.String()) {
		if line, ok := scr.Find(m); ok {
			return line, nil
		}
	}
	return r.Until(ctx, m, opts...)
}

// ReadScreen returns the whole virtual screen with trailing whitespace
// removed. It does not move the read position.
func (r *Reader) ReadScreen() string {
	return r.screen.Read()
}

// Screen captures the virtual screen.
func (r *Reader) Screen() *Screen {
	lines := r.screen.Lines()
	row, col := r.screen.Cursor()
	return newScreen(lines, r.width, row, col)
}

// Output returns everything read so far, decoded but not rendered.
func (r *Reader) Output() string {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	return r.output.String()
}

// Lines yields raw output lines, without the trailing CR LF, from the
// moment Lines is called until the output closes or ctx ends. An
// unterminated last line is yielded when the output closes.
//
// The subscription starts when Lines is called, not when iteration starts.
// The returned sequence can be iterated once.
func (r *Reader) Lines(ctx context.Context) iter.Seq[string] {
	var (
		mu      sync.Mutex
		pending []string
	)
	notify := make(chan struct{}, 1)
	unsubscribe := r.lines.Subscribe(func(line string) {
		mu.Lock()
		pending = append(pending, line)
		mu.Unlock()
		select {
		case notify <- struct{}{}:
		default:
		}
	})

	next := func() (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		if len(pending) == 0 {
			return "", false
		}
		line := pending[0]
		pending = pending[1:]
		return line, true
	}

	return func(yield func(string) bool) {
		defer unsubscribe()
		for {
			if line, ok := next(); ok {
				if !yield(line) {
					return
				}
				continue
			}
			select {
			case <-notify:
			case <-r.lines.Done():
				for {
					line, ok := next()
					if !ok || !yield(line) {
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// Done is closed once the output has been fully consumed.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Err returns the read error that ended the output, or nil if it ended
// with EOF or has not ended.
func (r *Reader) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

func (r *Reader) waitError(ctx context.Context, err error, m Matcher, timeout time.Duration) error {
	switch {
	case errors.Is(err, eventqueue.ErrClosed):
		return &PrematureCloseError{
			Matcher:  m.String(),
			Screen:   r.ReadScreen(),
			ExitCode: -1,
			Err:      r.Err(),
		}
	case errors.Is(err, context.DeadlineExceeded) && timeout > 0 && ctx.Err() == nil:
		return &TimeoutError{
			Matcher: m.String(),
			Timeout: timeout,
			Screen:  r.ReadScreen(),
		}
	default:
		return err
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
