package cli

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"snapkv/internal/state"
	"snapkv/internal/store"
)

// memBackend is an in-memory store.Backend whose writes can be made to fail.
type memBackend struct {
	data     []byte
	writeErr error
	writes   int
}

func (m *memBackend) Read() ([]byte, error) {
	if m.data == nil {
		return nil, store.ErrNotFound
	}
	return m.data, nil
}

func (m *memBackend) Write(data []byte) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memBackend) Quarantine() (string, error) { return "", errors.New("not supported") }

func (m *memBackend) Location() string { return "mem" }

func memEnv(b *memBackend, stdout io.Writer) *env {
	return &env{
		stdout:   stdout,
		kv:       state.NewPersistence(b, false),
		profiles: state.NewPersistence(&memBackend{}, false),
	}
}

func TestRegistryRegisterNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil handler")
		}
	}()
	NewCommandRegistry().Register("broken", Command{})
}

func TestRegistryDispatch(t *testing.T) {
	r := NewCommandRegistry()
	called := 0
	want := errors.New("boom")
	r.Register("a", Command{Handler: func(*env) error { called++; return nil }})
	r.Register("b", Command{Handler: func(*env) error { return want }})

	if err := r.Dispatch("a", &env{}); err != nil {
		t.Fatalf("dispatch a: %v", err)
	}
	if called != 1 {
		t.Fatalf("handler called %d times", called)
	}
	if err := r.Dispatch("b", &env{}); !errors.Is(err, want) {
		t.Fatalf("dispatch b = %v, want %v", err, want)
	}
	if err := r.Dispatch("missing", &env{}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("dispatch missing = %v", err)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewCommandRegistry()
	noop := func(*env) error { return nil }
	r.Register("x", Command{Handler: noop})
	r.Register("x", Command{Mutating: true, Handler: noop})

	if cmd, _ := r.Lookup("x"); !cmd.Mutating {
		t.Fatal("second Register should replace the first")
	}
}

func setHandler(e *env) error {
	m := state.NewMap()
	e.kv.Load(m)
	m.Set("k", []byte("v"))
	e.stage(e.kv, m)
	e.printf("Stored key 'k'\n")
	return nil
}

func TestMutatingCommandSavesThenPrints(t *testing.T) {
	r := NewCommandRegistry()
	r.Register("set", Command{Mutating: true, Handler: setHandler})

	b := &memBackend{}
	var out bytes.Buffer
	if err := r.Dispatch("set", memEnv(b, &out)); err != nil {
		t.Fatal(err)
	}
	if out.String() != "Stored key 'k'\n" {
		t.Fatalf("stdout = %q", out.String())
	}
	if b.writes != 1 {
		t.Fatalf("writes = %d, want 1", b.writes)
	}
}

func TestMutatingCommandSaveFailureDropsOutput(t *testing.T) {
	r := NewCommandRegistry()
	r.Register("set", Command{Mutating: true, Handler: setHandler})

	b := &memBackend{writeErr: errors.New("disk full")}
	var out bytes.Buffer
	err := r.Dispatch("set", memEnv(b, &out))
	if !errors.Is(err, errSave) || !errors.Is(err, b.writeErr) {
		t.Fatalf("err = %v, want errSave wrapping the write error", err)
	}
	if out.Len() != 0 {
		t.Fatalf("stdout = %q, want nothing on save failure", out.String())
	}
}

func TestMutatingCommandWithoutStagingDoesNotWrite(t *testing.T) {
	r := NewCommandRegistry()
	r.Register("delete", Command{Mutating: true, Handler: func(e *env) error {
		e.printf("Key not found\n")
		return nil
	}})

	b := &memBackend{}
	var out bytes.Buffer
	if err := r.Dispatch("delete", memEnv(b, &out)); err != nil {
		t.Fatal(err)
	}
	if b.writes != 0 {
		t.Fatalf("writes = %d, want 0", b.writes)
	}
	if out.String() != "Key not found\n" {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestReadOnlyCommandNeverSaves(t *testing.T) {
	r := NewCommandRegistry()
	r.Register("peek", Command{Handler: setHandler})

	b := &memBackend{}
	var out bytes.Buffer
	if err := r.Dispatch("peek", memEnv(b, &out)); err != nil {
		t.Fatal(err)
	}
	if b.writes != 0 {
		t.Fatalf("writes = %d, want 0 for a read-only command", b.writes)
	}
}

func TestAppRegistersEveryCommand(t *testing.T) {
	a := New(io.Discard, io.Discard)
	mutating := map[string]bool{
		"set": true, "get": false, "list": false, "delete": true, "reset": true,
		"profile add": true, "profile list": false, "profile delete": true, "profile reset": true,
		"info": false,
	}
	for name, want := range mutating {
		cmd, ok := a.registry.Lookup(name)
		if !ok {
			t.Errorf("%s: not registered", name)
			continue
		}
		if cmd.Mutating != want {
			t.Errorf("%s: mutating = %v, want %v", name, cmd.Mutating, want)
		}
	}
	if n := len(a.registry.commands); n != len(mutating) {
		t.Errorf("registered %d commands, want %d", n, len(mutating))
	}
}
