package proto

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Kind identifies which structure a snapshot envelope carries.
type Kind byte

const (
	KindKeyValue Kind = 1
	KindProfiles Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindKeyValue:
		return "kv"
	case KindProfiles:
		return "profiles"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// FormatVersion is the only envelope version this build reads and writes.
const FormatVersion = 1

var magic = [4]byte{'S', 'N', 'K', 'V'}

const (
	headerLen   = len(magic) + 1 + 1 + blake2b.Size256
	checksumOff = len(magic) + 2
)

var (
	ErrTruncated          = errors.New("snapshot shorter than header")
	ErrBadMagic           = errors.New("snapshot magic mismatch")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrKindMismatch       = errors.New("snapshot kind mismatch")
	ErrChecksum           = errors.New("snapshot checksum mismatch")
	ErrMalformed          = errors.New("malformed snapshot payload")
	ErrInvalidString      = errors.New("string field is not valid UTF-8")
)

// SealEnvelope frames a payload for the given kind.
// Layout: magic(4) + version(1) + kind(1) + blake2b-256(payload)(32) + payload.
func SealEnvelope(kind Kind, payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))
	buf.Write(magic[:])
	buf.WriteByte(FormatVersion)
	buf.WriteByte(byte(kind))
	buf.Write(sum[:])
	buf.Write(payload)
	return buf.Bytes()
}

// OpenEnvelope verifies the header and checksum and returns the payload.
// The returned slice aliases data.
func OpenEnvelope(kind Kind, data []byte) ([]byte, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, ErrBadMagic
	}
	if v := data[len(magic)]; v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	if got := Kind(data[len(magic)+1]); got != kind {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrKindMismatch, got, kind)
	}
	payload := data[headerLen:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], data[checksumOff:headerLen]) {
		return nil, ErrChecksum
	}
	return payload, nil
}
