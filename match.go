package clifford

import (
	"fmt"
	"regexp"
	"strings"
)

// A Matcher tests a fragment of screen text. Matchers are pure: the same
// fragment always gives the same answer. String describes the matcher for
// error messages.
type Matcher interface {
	Match(fragment string) bool
	String() string
}

type textMatcher string

func (m textMatcher) Match(fragment string) bool { return strings.Contains(fragment, string(m)) }

func (m textMatcher) String() string { return fmt.Sprintf("text %q", string(m)) }

type patternMatcher struct {
	re *regexp.Regexp
}

func (m patternMatcher) Match(fragment string) bool { return m.re.MatchString(fragment) }

func (m patternMatcher) String() string { return fmt.Sprintf("regexp %q", m.re.String()) }

// Text matches fragments that contain s.
func Text(s string) Matcher {
	return textMatcher(s)
}

// Regexp matches fragments that match the regular expression.
// The pattern is compiled once; an invalid pattern causes a panic.
func Regexp(pattern string) Matcher {
	return patternMatcher{re: regexp.MustCompile(pattern)}
}

// Pattern matches fragments that match re.
func Pattern(re *regexp.Regexp) Matcher {
	return patternMatcher{re: re}
}

type funcMatcher struct {
	match func(string) bool
	desc  string
}

func (m funcMatcher) Match(fragment string) bool { return m.match(fragment) }

func (m funcMatcher) String() string { return m.desc }

// Not inverts a matcher.
func Not(m Matcher) Matcher {
	return funcMatcher{
		match: func(s string) bool { return !m.Match(s) },
		desc:  "NOT(" + m.String() + ")",
	}
}

// All matches when every provided matcher matches.
func All(matchers ...Matcher) Matcher {
	return funcMatcher{
		match: func(s string) bool {
			for _, m := range matchers {
				if !m.Match(s) {
					return false
				}
			}
			return true
		},
		desc: "all of: " + describe(matchers),
	}
}

// Any matches when at least one provided matcher matches.
func Any(matchers ...Matcher) Matcher {
	return funcMatcher{
		match: func(s string) bool {
			for _, m := range matchers {
				if m.Match(s) {
					return true
				}
			}
			return false
		},
		desc: "any of: " + describe(matchers),
	}
}

func describe(matchers []Matcher) string {
	descs := make([]string, 0, len(matchers))
	for _, m := range matchers {
		descs = append(descs, m.String())
	}
	return strings.Join(descs, ", ")
}
