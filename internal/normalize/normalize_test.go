package normalize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		reps  []Replacer
		want  string
	}{
		{name: "plain", chunk: "hello", want: "hello"},
		{name: "line feed gains carriage return", chunk: "a\nb\n", want: "a\n\rb\n\r"},
		{name: "crlf from a pty", chunk: "a\r\nb", want: "a\r\n\rb"},
		{name: "invalid utf8", chunk: "a\xffb", want: "a�b"},
		{
			name:  "replacers run in order",
			chunk: "✔ done",
			reps: []Replacer{
				func(s string) string { return strings.ReplaceAll(s, "✔", "√") },
				func(s string) string { return strings.ReplaceAll(s, "√", "ok") },
			},
			want: "ok done",
		},
		{
			name:  "replacers see canonical line feeds",
			chunk: "x\ny",
			reps: []Replacer{
				func(s string) string { return regexp.MustCompile(`\n\r`).ReplaceAllString(s, "|") },
			},
			want: "x|y",
		},
		{name: "nil replacer is skipped", chunk: "z", reps: []Replacer{nil}, want: "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk([]byte(tt.chunk), tt.reps))
		})
	}
}

func TestChunkIsDeterministic(t *testing.T) {
	in := []byte("\x1b[2K\r? pick\n")
	assert.Equal(t, Chunk(in, nil), Chunk(in, nil))
}

func TestDecoderSplitRune(t *testing.T) {
	full := []byte("pick ✔ done")
	split := strings.Index(string(full), "✔") + 1

	var d Decoder
	first := d.Decode(full[:split])
	second := d.Decode(full[split:])

	assert.Equal(t, "pick ", first)
	assert.Equal(t, "✔ done", second)
	assert.Empty(t, d.Flush())
}

func TestDecoderFlushIncomplete(t *testing.T) {
	var d Decoder
	assert.Equal(t, "a", d.Decode([]byte{'a', 0xe2, 0x9c}))
	assert.Equal(t, "�", d.Flush()[:3])
}

func TestPrintable(t *testing.T) {
	assert.Equal(t, `"red\n"`, Printable("\x1b[31mred\x1b[0m\n"))
	assert.Equal(t, `"title"`, Printable("\x1b]0;x\x07title"))
}
