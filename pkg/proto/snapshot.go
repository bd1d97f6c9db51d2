package proto

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers, see snapshot.proto.
const (
	fieldKVEntries   protowire.Number = 1
	fieldEntryKey    protowire.Number = 1
	fieldEntryValue  protowire.Number = 2
	fieldProfiles    protowire.Number = 1
	fieldProfileName protowire.Number = 1
	fieldProfileAge  protowire.Number = 2
)

// Profile mirrors the Profile message.
type Profile struct {
	Name string
	Age  uint32
}

// MarshalKeyValue encodes a KeyValueSnapshot and seals it.
// Entries are written in sorted key order so equal maps produce equal bytes.
// Keys must be valid UTF-8, the same rule UnmarshalKeyValue enforces.
func MarshalKeyValue(entries map[string][]byte) ([]byte, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		if !utf8.ValidString(k) {
			return nil, fmt.Errorf("%w: key %q", ErrInvalidString, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b []byte
	for _, k := range keys {
		var e []byte
		e = protowire.AppendTag(e, fieldEntryKey, protowire.BytesType)
		e = protowire.AppendString(e, k)
		e = protowire.AppendTag(e, fieldEntryValue, protowire.BytesType)
		e = protowire.AppendBytes(e, entries[k])

		b = protowire.AppendTag(b, fieldKVEntries, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return SealEnvelope(KindKeyValue, b), nil
}

// UnmarshalKeyValue opens a sealed KeyValueSnapshot.
// Later duplicates of a key replace earlier ones, as with protobuf maps.
func UnmarshalKeyValue(data []byte) (map[string][]byte, error) {
	payload, err := OpenEnvelope(KindKeyValue, data)
	if err != nil {
		return nil, err
	}

	entries := make(map[string][]byte)
	err = walkFields(payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldKVEntries || typ != protowire.BytesType {
			return -1, nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		k, v, err := unmarshalEntry(raw)
		if err != nil {
			return 0, err
		}
		entries[k] = v
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func unmarshalEntry(b []byte) (string, []byte, error) {
	var (
		key   string
		value []byte
	)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return -1, nil
		}
		switch num {
		case fieldEntryKey:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			if !utf8.ValidString(s) {
				return 0, errors.New("entry key is not valid UTF-8")
			}
			key = s
			return n, nil
		case fieldEntryValue:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			value = append([]byte(nil), v...)
			return n, nil
		}
		return -1, nil
	})
	return key, value, err
}

// MarshalProfiles encodes a ProfileSnapshot and seals it. Names must be
// valid UTF-8.
func MarshalProfiles(profiles []Profile) ([]byte, error) {
	var b []byte
	for i, p := range profiles {
		if !utf8.ValidString(p.Name) {
			return nil, fmt.Errorf("%w: profile %d name %q", ErrInvalidString, i, p.Name)
		}
		var e []byte
		e = protowire.AppendTag(e, fieldProfileName, protowire.BytesType)
		e = protowire.AppendString(e, p.Name)
		e = protowire.AppendTag(e, fieldProfileAge, protowire.VarintType)
		e = protowire.AppendVarint(e, uint64(p.Age))

		b = protowire.AppendTag(b, fieldProfiles, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return SealEnvelope(KindProfiles, b), nil
}

// UnmarshalProfiles opens a sealed ProfileSnapshot.
func UnmarshalProfiles(data []byte) ([]Profile, error) {
	payload, err := OpenEnvelope(KindProfiles, data)
	if err != nil {
		return nil, err
	}

	var profiles []Profile
	err = walkFields(payload, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldProfiles || typ != protowire.BytesType {
			return -1, nil
		}
		raw, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		p, err := unmarshalProfile(raw)
		if err != nil {
			return 0, err
		}
		profiles = append(profiles, p)
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func unmarshalProfile(b []byte) (Profile, error) {
	var p Profile
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldProfileName && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			if !utf8.ValidString(s) {
				return 0, errors.New("profile name is not valid UTF-8")
			}
			p.Name = s
			return n, nil
		case num == fieldProfileAge && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			if v > math.MaxUint32 {
				return 0, fmt.Errorf("profile age %d overflows uint32", v)
			}
			p.Age = uint32(v)
			return n, nil
		}
		return -1, nil
	})
	return p, err
}

// walkFields iterates the top-level fields of a message. fn receives the
// bytes following the tag and returns how many it consumed, or -1 to have the
// field skipped. Every error is reported as ErrMalformed, wrapped once.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if errors.Is(err, ErrMalformed) {
			return err
		}
		if err != nil {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, err)
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
		}
		b = b[m:]
	}
	return nil
}
