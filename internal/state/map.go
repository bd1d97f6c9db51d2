package state

import (
	"sort"

	"snapkv/internal/logging"
	pb "snapkv/pkg/proto"
)

var logger = logging.For("state")

// Snapshotter is a structure the persistence adapter can load and save as
// one full snapshot.
type Snapshotter interface {
	Kind() pb.Kind
	MarshalSnapshot() ([]byte, error)
	// UnmarshalSnapshot replaces the contents with the decoded snapshot.
	// On error the receiver is left unchanged.
	UnmarshalSnapshot(data []byte) error
	Reset()
	Len() int
}

// Map is the key-value store: unique UTF-8 keys mapped to opaque bytes.
type Map struct {
	entries map[string][]byte
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{entries: make(map[string][]byte)}
}

func (m *Map) Kind() pb.Kind { return pb.KindKeyValue }

// Set inserts or overwrites key.
func (m *Map) Set(key string, value []byte) {
	m.entries[key] = value
}

// Get returns the value for a key, or false if not found.
func (m *Map) Get(key string) ([]byte, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	return true
}

// Keys returns all keys, sorted.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset removes every entry.
func (m *Map) Reset() {
	m.entries = make(map[string][]byte)
}

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	return len(m.entries)
}

func (m *Map) MarshalSnapshot() ([]byte, error) {
	return pb.MarshalKeyValue(m.entries)
}

func (m *Map) UnmarshalSnapshot(data []byte) error {
	entries, err := pb.UnmarshalKeyValue(data)
	if err != nil {
		return err
	}
	m.entries = entries
	return nil
}
