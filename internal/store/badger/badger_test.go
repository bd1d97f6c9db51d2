package badger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snapkv/internal/store"
)

var _ store.Backend = (*Store)(nil)

func TestReadMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "kv"))
	if _, err := s.Read(); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Read() err = %v, want ErrNotFound", err)
	}
}

func TestReadEmptyDB(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "kv"))
	if err := os.MkdirAll(s.Location(), 0700); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Read() err = %v, want ErrNotFound", err)
	}
}

func TestRegularFileInTheWay(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "kv"))
	if err := os.WriteFile(s.Location(), []byte("not a badger directory"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := s.Read()
	if err == nil || errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Read() err = %v, want an open error", err)
	}
	if !strings.Contains(err.Error(), s.Location()) || !strings.Contains(err.Error(), "move it aside") {
		t.Fatalf("Read() err = %q, want the path and a hint to move it", err)
	}
}

func TestWriteReadOverwrite(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "kv"))
	if err := s.Write([]byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("Read() = %q, want second", got)
	}
}

func TestQuarantine(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "kv"))
	if err := s.Write([]byte("bad")); err != nil {
		t.Fatal(err)
	}
	where, err := s.Quarantine()
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	if !strings.HasPrefix(where, s.Location()+"#quarantine/") {
		t.Fatalf("quarantine location = %q", where)
	}
	if _, err := s.Read(); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Read after quarantine err = %v, want ErrNotFound", err)
	}
}
