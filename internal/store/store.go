package store

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Read when no snapshot has been written yet.
var ErrNotFound = errors.New("snapshot not found")

// Backend holds exactly one opaque snapshot blob.
// The file implementation is the canonical one; the interface lets the same
// blob live in bbolt or Badger without touching the rest of the codebase.
type Backend interface {
	// Read returns the full snapshot, or ErrNotFound if none exists.
	Read() ([]byte, error)
	// Write replaces the full snapshot with data.
	Write(data []byte) error
	// Quarantine moves the current snapshot aside so the next Read reports
	// ErrNotFound. It returns a description of where the blob went.
	Quarantine() (string, error)
	// Location describes where the snapshot lives, for logs and `info`.
	Location() string
}

// NewQuarantineID returns a unique name component for a quarantined snapshot.
func NewQuarantineID() string {
	return uuid.NewString()
}
