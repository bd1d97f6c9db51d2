package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"snapkv/internal/store"
)

// Store keeps the snapshot as a single flat file.
type Store struct {
	path   string
	atomic bool
}

// Option configures a Store.
type Option func(*Store)

// WithAtomicWrites stages each write in a temp file in the same directory and
// renames it over the snapshot.
func WithAtomicWrites(enabled bool) Option {
	return func(s *Store) { s.atomic = enabled }
}

// New returns a file-backed store at path. Nothing is touched on disk until
// the first Read or Write.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	return data, nil
}

// Write creates or truncates the snapshot file and writes data in full.
func (s *Store) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	if s.atomic {
		if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("writing snapshot file atomically: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing snapshot file: %w", err)
	}
	return nil
}

// Quarantine renames the snapshot to <path>.corrupt-<uuid>.
func (s *Store) Quarantine() (string, error) {
	dst := s.path + ".corrupt-" + store.NewQuarantineID()
	if err := os.Rename(s.path, dst); err != nil {
		return "", fmt.Errorf("quarantining snapshot file: %w", err)
	}
	return dst, nil
}

func (s *Store) Location() string {
	return s.path
}
