package cli

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

// Handler runs one selected command against the invocation's environment.
type Handler func(e *env) error

// Command describes a registered command. A Mutating command's output is
// held back until everything it staged has been saved.
type Command struct {
	Mutating bool
	Handler  Handler
}

// CommandRegistry maps full command names (as reported by kingpin, e.g.
// "profile add") to handlers.
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry creates an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

// Register adds a command. Registering the same name twice overwrites the
// previous entry. Panics if cmd.Handler is nil.
func (r *CommandRegistry) Register(name string, cmd Command) {
	if cmd.Handler == nil {
		panic("cli: Register called with nil handler for " + name)
	}
	r.commands[name] = cmd
}

// Lookup returns the command registered under name.
func (r *CommandRegistry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Dispatch runs the handler registered under name. Read-only commands write
// straight to e.stdout. Mutating commands go through commit.
func (r *CommandRegistry) Dispatch(name string, e *env) error {
	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if !cmd.Mutating {
		return cmd.Handler(e)
	}
	return commit(cmd.Handler, e)
}

// commit runs h with its output buffered, saves every snapshot it staged,
// and releases the output only when all saves succeeded. A handler that
// stages nothing (a delete that found nothing) writes nothing to disk.
func commit(h Handler, e *env) error {
	var out bytes.Buffer
	tx := &env{stdout: &out, cfg: e.cfg, kv: e.kv, profiles: e.profiles}
	if err := h(tx); err != nil {
		return err
	}
	for _, s := range tx.staged {
		if err := s.p.Save(s.s); err != nil {
			return fmt.Errorf("%w: %w", errSave, err)
		}
	}
	_, err := out.WriteTo(e.stdout)
	return err
}

// commandParent is satisfied by both *kingpin.Application and
// *kingpin.CmdClause.
type commandParent interface {
	Command(name, help string) *kingpin.CmdClause
}

// register binds a kingpin clause to a handler under its full command name.
func (a *App) register(clause *kingpin.CmdClause, mutating bool, h Handler) {
	a.registry.Register(clause.FullCommand(), Command{Mutating: mutating, Handler: h})
}
