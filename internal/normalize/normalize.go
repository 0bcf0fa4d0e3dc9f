// Package normalize turns raw output chunks into the text fed to the
// terminal emulator.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// A Replacer rewrites normalized text. Replacers run in order after line
// endings are canonicalized.
type Replacer func(string) string

// lineFeed is what every raw LF byte becomes. The emulator treats LF as a
// pure index (same column, next row), so a CR is appended to bring the
// cursor back to column 0, the way a tty with onlcr would.
const lineFeed = "\n\r"

// Chunk decodes chunk as UTF-8, canonicalizes line feeds and applies reps
// in order. Invalid bytes decode to U+FFFD.
func Chunk(chunk []byte, reps []Replacer) string {
	return Text(decode(chunk), reps)
}

// Text is Chunk for input that is already decoded.
func Text(text string, reps []Replacer) string {
	text = strings.ReplaceAll(text, "\n", lineFeed)
	for _, r := range reps {
		if r != nil {
			text = r(text)
		}
	}
	return text
}

func decode(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}

// Decoder decodes a stream of chunks, holding back a multi-byte rune that
// was split across two reads until the rest of it arrives.
type Decoder struct {
	carry []byte
}

// Decode returns the text of every complete rune in the carried bytes plus
// chunk.
func (d *Decoder) Decode(chunk []byte) string {
	buf := make([]byte, 0, len(d.carry)+len(chunk))
	buf = append(buf, d.carry...)
	buf = append(buf, chunk...)
	d.carry = nil

	cut := incompleteTail(buf)
	if cut < len(buf) {
		d.carry = append(d.carry, buf[cut:]...)
		buf = buf[:cut]
	}
	return decode(buf)
}

// Flush returns whatever is still carried, decoded as-is.
func (d *Decoder) Flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	s := decode(d.carry)
	d.carry = nil
	return s
}

// incompleteTail returns the offset of a trailing rune that is not yet
// complete, or len(b).
func incompleteTail(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return i
		}
		break
	}
	return len(b)
}

var escapeRe = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[ -/]*[@-~]|\][^\x07\x1b]*(?:\x07|\x1b\\)|[@-Z\\-_])`)

// Printable strips escape sequences and quotes the rest, for debug logs.
func Printable(s string) string {
	return strconv.Quote(escapeRe.ReplaceAllString(s, ""))
}
