package state

import (
	"errors"
	"fmt"

	"snapkv/internal/store"
)

// LoadResult tells how Load arrived at the in-memory state.
type LoadResult int

const (
	LoadOK LoadResult = iota
	LoadMissing
	LoadUnreadable
	LoadCorrupt
)

func (r LoadResult) String() string {
	switch r {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadUnreadable:
		return "unreadable"
	case LoadCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("LoadResult(%d)", int(r))
	}
}

// Persistence moves whole snapshots between a Snapshotter and a backend.
type Persistence struct {
	backend    store.Backend
	quarantine bool
}

// NewPersistence returns an adapter over backend. When quarantine is set, a
// snapshot that fails to decode is moved aside before the state is reset.
func NewPersistence(backend store.Backend, quarantine bool) *Persistence {
	return &Persistence{backend: backend, quarantine: quarantine}
}

// Backend returns the underlying snapshot backend.
func (p *Persistence) Backend() store.Backend {
	return p.backend
}

// Load replaces s with the persisted snapshot. A missing, unreadable or
// corrupt snapshot leaves s empty; Load never fails.
func (p *Persistence) Load(s Snapshotter) LoadResult {
	loc := p.backend.Location()

	data, err := p.backend.Read()
	if errors.Is(err, store.ErrNotFound) {
		logger.Debug("no snapshot yet, starting empty", "kind", s.Kind(), "location", loc)
		s.Reset()
		return LoadMissing
	}
	if err != nil {
		logger.Warn("snapshot unreadable, starting empty", "kind", s.Kind(), "location", loc, "err", err)
		s.Reset()
		return LoadUnreadable
	}

	if err := s.UnmarshalSnapshot(data); err != nil {
		logger.Warn("snapshot corrupt, starting empty", "kind", s.Kind(), "location", loc, "bytes", len(data), "err", err)
		if p.quarantine {
			if dst, qerr := p.backend.Quarantine(); qerr != nil {
				logger.Error("quarantine corrupt snapshot", "location", loc, "err", qerr)
			} else {
				logger.Warn("corrupt snapshot moved aside", "to", dst)
			}
		}
		s.Reset()
		return LoadCorrupt
	}

	logger.Debug("loaded snapshot", "kind", s.Kind(), "location", loc, "entries", s.Len())
	return LoadOK
}

// Save writes the full state of s, replacing whatever was persisted before.
func (p *Persistence) Save(s Snapshotter) error {
	data, err := s.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("encoding %s snapshot: %w", s.Kind(), err)
	}
	if err := p.backend.Write(data); err != nil {
		return fmt.Errorf("saving %s snapshot: %w", s.Kind(), err)
	}
	logger.Debug("saved snapshot", "kind", s.Kind(), "location", p.backend.Location(), "entries", s.Len())
	return nil
}
