package clifford

import (
	"strings"
)

// Screen is an immutable capture of the virtual screen.
type Screen struct {
	lines     []string
	raw       string
	width     int
	height    int
	cursorRow int
	cursorCol int
}

// newScreen creates a Screen from rendered rows. Rows carry no trailing
// spaces and trailing blank rows are already dropped.
func newScreen(lines []string, width, row, col int) *Screen {
	raw := strings.Join(lines, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}
	return &Screen{
		lines:     lines,
		raw:       raw,
		width:     width,
		height:    len(lines),
		cursorRow: row,
		cursorCol: col,
	}
}

// String returns the full screen content as a string.
func (s *Screen) String() string {
	return s.raw
}

// Lines returns a copy of the screen content as a slice of strings, one per row.
// The returned slice is a shallow copy; callers may modify it without affecting
// the Screen.
func (s *Screen) Lines() []string {
	cp := make([]string, len(s.lines))
	copy(cp, s.lines)
	return cp
}

// Line returns the content of a single row (0-indexed).
// Panics if n is out of range.
func (s *Screen) Line(n int) string {
	return s.lines[n]
}

// Contains reports whether the screen contains the substring.
func (s *Screen) Contains(substr string) bool {
	return strings.Contains(s.raw, substr)
}

// Size returns the screen width and the number of rendered rows.
func (s *Screen) Size() (width, height int) {
	return s.width, s.height
}

// Cursor returns the cursor position (0-indexed).
func (s *Screen) Cursor() (row, col int) {
	return s.cursorRow, s.cursorCol
}

// Find returns the bottom-most line that m matches.
func (s *Screen) Find(m Matcher) (string, bool) {
	for i := len(s.lines) - 1; i >= 0; i-- {
		if m.Match(s.lines[i]) {
			return s.lines[i], true
		}
	}
	return "", false
}
