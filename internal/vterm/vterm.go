// Package vterm holds the rendered terminal state of one driven process.
// Escape sequence decoding is done by vt10x; this package only feeds it and
// renders its grid back to text.
package vterm

import (
	"strings"
	"sync"
	"unicode"

	"github.com/hinshun/vt10x"
)

// Screen is a virtual terminal. Write is called by a single producer in
// arrival order; Read and Lines may be called concurrently with it.
type Screen struct {
	mu   sync.Mutex
	vt   vt10x.Terminal
	cols int
	rows int
}

// New creates a virtual terminal with the given dimensions.
func New(cols, rows int) *Screen {
	return &Screen{
		vt:   vt10x.New(vt10x.WithSize(cols, rows)),
		cols: cols,
		rows: rows,
	}
}

// Write feeds one fragment into the emulator. Escape sequence state
// (cursor, modes) carries across calls, so fragments must arrive in the
// order they were produced.
func (s *Screen) Write(fragment string) {
	if fragment == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.vt.Write([]byte(fragment))
}

// Read renders the screen as text with trailing whitespace removed.
func (s *Screen) Read() string {
	return strings.TrimRightFunc(strings.Join(s.Lines(), "\n"), unicode.IsSpace)
}

// Lines renders the screen one row per entry, trailing spaces trimmed and
// trailing blank rows dropped.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, 0, 32)
	last := -1
	var row strings.Builder
	for y := 0; y < s.rows; y++ {
		row.Reset()
		for x := 0; x < s.cols; x++ {
			g := s.vt.Cell(x, y)
			if g.Char == 0 {
				row.WriteByte(' ')
			} else {
				row.WriteRune(g.Char)
			}
		}
		line := strings.TrimRight(row.String(), " ")
		lines = append(lines, line)
		if line != "" {
			last = y
		}
	}
	return lines[:last+1]
}

// Cursor returns the 0-indexed cursor position.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.vt.Cursor()
	return c.Y, c.X
}

// Size returns the emulator dimensions.
func (s *Screen) Size() (cols, rows int) {
	return s.cols, s.rows
}
