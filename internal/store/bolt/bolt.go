package bolt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"snapkv/internal/store"
)

var (
	snapshotBucket   = []byte("snapshot")
	quarantineBucket = []byte("quarantine")
	snapshotKey      = []byte("current")
)

// openTimeout bounds how long we wait for another process's file lock.
const openTimeout = 2 * time.Second

// Store implements store.Backend on a bbolt database. The whole snapshot is
// one value; the database is opened for each operation and closed again.
type Store struct {
	path string
}

// New returns a bbolt-backed store at path. The database file is created on
// the first Write.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: openTimeout, ReadOnly: readOnly})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("opening bolt db %s: locked by another process: %w", s.path, err)
	}
	if err != nil {
		// Quarantine needs an open database too, so this can only be fixed by hand.
		return nil, fmt.Errorf("opening bolt db %s (move it aside if it is not a bolt database): %w", s.path, err)
	}
	return db, nil
}

func (s *Store) Read() ([]byte, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	db, err := s.open(true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var val []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		if b == nil {
			return store.ErrNotFound
		}
		v := b.Get(snapshotKey)
		if v == nil {
			return store.ErrNotFound
		}
		val = make([]byte, len(v))
		copy(val, v)
		return nil
	})
	return val, err
}

func (s *Store) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating db dir: %w", err)
	}
	db, err := s.open(false)
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(snapshotBucket)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		return b.Put(snapshotKey, data)
	})
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing bolt db: %w", cerr)
	}
	return err
}

// Quarantine moves the snapshot value into the quarantine bucket under a
// fresh id.
func (s *Store) Quarantine() (string, error) {
	db, err := s.open(false)
	if err != nil {
		return "", err
	}
	defer db.Close()

	id := store.NewQuarantineID()
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(snapshotBucket)
		if b == nil {
			return store.ErrNotFound
		}
		v := b.Get(snapshotKey)
		if v == nil {
			return store.ErrNotFound
		}
		q, err := tx.CreateBucketIfNotExists(quarantineBucket)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		if err := q.Put([]byte(id), append([]byte(nil), v...)); err != nil {
			return err
		}
		return b.Delete(snapshotKey)
	})
	if err != nil {
		return "", fmt.Errorf("quarantining snapshot: %w", err)
	}
	return fmt.Sprintf("%s#%s/%s", s.path, quarantineBucket, id), nil
}

func (s *Store) Location() string {
	return s.path
}
