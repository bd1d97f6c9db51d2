package badger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dgraph-io/badger/v4"

	"snapkv/internal/store"
)

var snapshotKey = []byte("snapshot/current")

const quarantinePrefix = "quarantine/"

// Store implements store.Backend on a Badger directory. Like the bolt
// backend, it holds the whole snapshot as one value and opens the database
// only for the duration of a single operation.
type Store struct {
	dir string
}

// New returns a Badger-backed store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) open() (*badger.DB, error) {
	opts := badger.DefaultOptions(s.dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db %s (move it aside if it is not a badger directory): %w", s.dir, err)
	}
	return db, nil
}

func (s *Store) Read() ([]byte, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNotFound
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var val []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

func (s *Store) Write(data []byte) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey, data)
	})
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing badger db: %w", cerr)
	}
	return err
}

// Quarantine re-keys the snapshot under quarantine/<uuid>.
func (s *Store) Quarantine() (string, error) {
	db, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()

	key := quarantinePrefix + store.NewQuarantineID()
	err = db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(key), val); err != nil {
			return err
		}
		return txn.Delete(snapshotKey)
	})
	if err != nil {
		return "", fmt.Errorf("quarantining snapshot: %w", err)
	}
	return s.dir + "#" + key, nil
}

func (s *Store) Location() string {
	return s.dir
}
