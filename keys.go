package clifford

// Key is a byte sequence written to the process input as-is.
type Key string

// Special keys, encoded the way an xterm sends them.
const (
	Enter     Key = "\r"
	Escape    Key = "\x1b"
	Tab       Key = "\t"
	Backspace Key = "\x7f"
	Up        Key = "\x1b[A"
	Down      Key = "\x1b[B"
	Right     Key = "\x1b[C"
	Left      Key = "\x1b[D"
	Home      Key = "\x1b[H"
	End       Key = "\x1b[F"
	PageUp    Key = "\x1b[5~"
	PageDown  Key = "\x1b[6~"
	Space     Key = " "
	Delete    Key = "\x1b[3~"

	F1  Key = "\x1bOP"
	F2  Key = "\x1bOQ"
	F3  Key = "\x1bOR"
	F4  Key = "\x1bOS"
	F5  Key = "\x1b[15~"
	F6  Key = "\x1b[17~"
	F7  Key = "\x1b[18~"
	F8  Key = "\x1b[19~"
	F9  Key = "\x1b[20~"
	F10 Key = "\x1b[21~"
	F11 Key = "\x1b[23~"
	F12 Key = "\x1b[24~"
)

// Ctrl returns the key sequence for Ctrl+<char>.
func Ctrl(c byte) Key {
	return Key([]byte{c & 0x1f})
}

// Alt returns the key sequence for Alt+<char>.
func Alt(c byte) Key {
	return Escape + Key([]byte{c})
}

// keyBytes concatenates keys into one write.
func keyBytes(keys []Key) []byte {
	var b []byte
	for _, k := range keys {
		b = append(b, string(k)...)
	}
	return b
}
