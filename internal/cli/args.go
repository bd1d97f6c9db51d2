package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/kingpin/v2"
)

// utf8Value is a kingpin value that rejects argv bytes which are not valid
// UTF-8. Keys and profile names must be UTF-8 to be encoded at all.
type utf8Value string

func (v *utf8Value) Set(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%q is not valid UTF-8", s)
	}
	*v = utf8Value(s)
	return nil
}

func (v *utf8Value) String() string { return string(*v) }

// utf8StringVar binds arg to target through utf8Value.
func utf8StringVar(arg *kingpin.ArgClause, target *string) {
	arg.SetValue((*utf8Value)(target))
}

// lossyString decodes b as UTF-8. Each maximal invalid subpart is replaced
// by a single U+FFFD, so a truncated multi-byte sequence yields one
// replacement character, not one per byte.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + utf8.UTFMax)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidPrefixLen(b):]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}

// invalidPrefixLen returns how many bytes at the start of b form the
// longest prefix of a well-formed sequence (at least 1). b must start with
// an ill-formed sequence.
func invalidPrefixLen(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	var need int
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		lo, need = 0xA0, 2
	case c == 0xED:
		hi, need = 0x9F, 2
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		lo, need = 0x90, 3
	case c == 0xF4:
		hi, need = 0x8F, 3
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}
	n := 1
	for n <= need && n < len(b) && b[n] >= lo && b[n] <= hi {
		lo, hi = 0x80, 0xBF
		n++
	}
	return n
}
