// Package screendiff computes the part of a rendered screen that a caller
// has not consumed yet.
package screendiff

import (
	"strings"
	"unicode/utf8"
)

// Diff compares the consumed cursor prev with the current screen cur.
//
// When cur extends prev, text is the extension. When the process redrew
// part of what was already consumed (a spinner frame, a moved selection
// marker), text is cur after the longest common leading substring of the
// two, so already-seen lines are not reported again.
//
// The new cursor is cur, except that an empty cur leaves the cursor at
// prev: an empty screen is almost always a frame caught between a clear
// and the redraw.
func Diff(prev, cur string) (cursor, text string) {
	if strings.HasPrefix(cur, prev) {
		text = cur[len(prev):]
	} else {
		text = cur[len(CommonPrefix(prev, cur)):]
	}
	if cur == "" {
		return prev, text
	}
	return cur, text
}

// CommonPrefix returns the longest common leading substring of a and b,
// cut on a rune boundary.
func CommonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	for i > 0 && i < len(a) && !utf8.RuneStart(a[i]) {
		i--
	}
	return a[:i]
}
