package vterm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadPlainLines(t *testing.T) {
	s := New(40, 10)
	s.Write("hello\n\r")
	s.Write("world")

	assert.Equal(t, "hello\nworld", s.Read())
	assert.Equal(t, []string{"hello", "world"}, s.Lines())
}

func TestReadIsIdempotent(t *testing.T) {
	s := New(40, 10)
	s.Write("? pick a color: ")
	assert.Equal(t, s.Read(), s.Read())
	assert.Equal(t, "? pick a color:", s.Read())
}

func TestEraseLineRedraw(t *testing.T) {
	s := New(40, 10)
	s.Write("? pick a color: ")
	s.Write("\r\x1b[2K? pick a color: red")

	assert.Equal(t, "? pick a color: red", s.Read())
}

func TestCursorUpRewrite(t *testing.T) {
	s := New(40, 10)
	s.Write("A\n\r")
	s.Write("B\n\r")
	s.Write("\x1b[1A\x1b[2KC")

	assert.Equal(t, "A\nC", s.Read())
}

func TestClearScreen(t *testing.T) {
	s := New(40, 10)
	s.Write("old\n\r")
	s.Write("\x1b[2J\x1b[H")

	assert.Empty(t, s.Read())
	assert.Empty(t, s.Lines())
}

func TestFragmentOrderMatters(t *testing.T) {
	s := New(40, 10)
	s.Write("\x1b[3")
	s.Write("1mred\x1b[0m")

	assert.Equal(t, "red", s.Read())
}

func TestCursor(t *testing.T) {
	s := New(40, 10)
	s.Write("ab\n\rcde")

	row, col := s.Cursor()
	assert.Equal(t, 1, row)
	assert.Equal(t, 3, col)
}
