package clifford_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cboone/clifford"
)

func TestMatchers(t *testing.T) {
	tests := []struct {
		name     string
		matcher  clifford.Matcher
		fragment string
		want     bool
		desc     string
	}{
		{"text hit", clifford.Text("red"), " red", true, `text "red"`},
		{"text miss", clifford.Text("blue"), " red", false, `text "blue"`},
		{"regexp hit", clifford.Regexp(`^\s*\d+ items?$`), "3 items", true, `regexp "^\\s*\\d+ items?$"`},
		{"regexp miss", clifford.Regexp(`^ok$`), "not ok", false, `regexp "^ok$"`},
		{"pattern", clifford.Pattern(regexp.MustCompile(`(?i)done`)), "DONE", true, `regexp "(?i)done"`},
		{"not", clifford.Not(clifford.Text("error")), "all good", true, `NOT(text "error")`},
		{
			"all", clifford.All(clifford.Text("saved"), clifford.Not(clifford.Text("error"))),
			"saved", true, `all of: text "saved", NOT(text "error")`,
		},
		{
			"all fails", clifford.All(clifford.Text("saved"), clifford.Text("done")),
			"saved", false, `all of: text "saved", text "done"`,
		},
		{
			"any", clifford.Any(clifford.Text("y/n"), clifford.Text("yes/no")),
			"continue? (yes/no)", true, `any of: text "y/n", text "yes/no"`,
		},
		{"any empty", clifford.Any(), "x", false, "any of: "},
		{"all empty", clifford.All(), "x", true, "all of: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.matcher.Match(tt.fragment))
			assert.Equal(t, tt.desc, tt.matcher.String())
		})
	}
}

func TestMatchersArePure(t *testing.T) {
	m := clifford.Regexp(`\bred\b`)
	for range 3 {
		assert.True(t, m.Match("? pick a color: red"))
		assert.False(t, m.Match("? pick a color: reddish"))
	}
}

func TestRegexpPanicsOnInvalidPattern(t *testing.T) {
	assert.Panics(t, func() { clifford.Regexp(`(`) })
}

func TestKeys(t *testing.T) {
	assert.Equal(t, clifford.Key("\x03"), clifford.Ctrl('c'))
	assert.Equal(t, clifford.Key("\x03"), clifford.Ctrl('C'))
	assert.Equal(t, clifford.Key("\x04"), clifford.Ctrl('d'))
	assert.Equal(t, clifford.Key("\x1bx"), clifford.Alt('x'))
	assert.Equal(t, clifford.Key("\x1b[A"), clifford.Up)
}
