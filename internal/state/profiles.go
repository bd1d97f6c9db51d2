package state

import (
	pb "snapkv/pkg/proto"
)

// Profile is one fixed-shape record.
type Profile struct {
	Name string
	Age  uint32
}

// Profiles is an ordered list of records. The position is the only
// identifier, so removing an element shifts every later index down by one.
type Profiles struct {
	items []Profile
}

// NewProfiles creates an empty list.
func NewProfiles() *Profiles {
	return &Profiles{}
}

func (p *Profiles) Kind() pb.Kind { return pb.KindProfiles }

// Add appends a record and returns its index.
func (p *Profiles) Add(name string, age uint32) int {
	p.items = append(p.items, Profile{Name: name, Age: age})
	return len(p.items) - 1
}

// List returns a copy of the records in order.
func (p *Profiles) List() []Profile {
	out := make([]Profile, len(p.items))
	copy(out, p.items)
	return out
}

// Delete removes the record at index and reports whether index was in range.
func (p *Profiles) Delete(index uint64) bool {
	if index >= uint64(len(p.items)) {
		return false
	}
	p.items = append(p.items[:index], p.items[index+1:]...)
	return true
}

// Reset removes every record.
func (p *Profiles) Reset() {
	p.items = nil
}

// Len returns the number of records.
func (p *Profiles) Len() int {
	return len(p.items)
}

func (p *Profiles) MarshalSnapshot() ([]byte, error) {
	recs := make([]pb.Profile, len(p.items))
	for i, it := range p.items {
		recs[i] = pb.Profile{Name: it.Name, Age: it.Age}
	}
	return pb.MarshalProfiles(recs)
}

func (p *Profiles) UnmarshalSnapshot(data []byte) error {
	recs, err := pb.UnmarshalProfiles(data)
	if err != nil {
		return err
	}
	items := make([]Profile, len(recs))
	for i, r := range recs {
		items[i] = Profile{Name: r.Name, Age: r.Age}
	}
	p.items = items
	return nil
}
