package cli

import (
	"snapkv/internal/state"
)

func (a *App) setupKVCommands(parent commandParent) {
	(&commandSet{}).setup(a, parent)
	(&commandGet{}).setup(a, parent)
	(&commandList{}).setup(a, parent)
	(&commandDelete{}).setup(a, parent)
	(&commandReset{}).setup(a, parent)
}

func loadMap(e *env) *state.Map {
	m := state.NewMap()
	e.kv.Load(m)
	return m
}

type commandSet struct {
	key   string
	value string
}

func (c *commandSet) setup(a *App, parent commandParent) {
	const help = "Store a key with associated data (as binary)."
	cmd := parent.Command("set", help)
	utf8StringVar(cmd.Arg("key", "Key name.").Required(), &c.key)
	cmd.Arg("value", "Value as string (stored as bytes).").Required().StringVar(&c.value)
	a.register(cmd, true, c.run)
}

func (c *commandSet) run(e *env) error {
	m := loadMap(e)
	m.Set(c.key, []byte(c.value))
	e.stage(e.kv, m)
	e.printf("Stored key '%s'\n", c.key)
	return nil
}

type commandGet struct {
	key string
}

func (c *commandGet) setup(a *App, parent commandParent) {
	const help = "Get a stored value by key."
	cmd := parent.Command("get", help)
	utf8StringVar(cmd.Arg("key", "Key to retrieve.").Required(), &c.key)
	a.register(cmd, false, c.run)
}

func (c *commandGet) run(e *env) error {
	v, ok := loadMap(e).Get(c.key)
	if !ok {
		e.printf("Key not found\n")
		return nil
	}
	e.printf("%s = %s\n", c.key, lossyString(v))
	return nil
}

type commandList struct{}

func (c *commandList) setup(a *App, parent commandParent) {
	const help = "List all stored keys."
	cmd := parent.Command("list", help).Alias("ls")
	a.register(cmd, false, c.run)
}

func (c *commandList) run(e *env) error {
	keys := loadMap(e).Keys()
	e.printf("Stored keys:\n")
	for _, k := range keys {
		e.printf("- %s\n", k)
	}
	return nil
}

type commandDelete struct {
	key string
}

func (c *commandDelete) setup(a *App, parent commandParent) {
	const help = "Delete a specific key."
	cmd := parent.Command("delete", help).Alias("rm")
	utf8StringVar(cmd.Arg("key", "Key to delete.").Required(), &c.key)
	a.register(cmd, true, c.run)
}

func (c *commandDelete) run(e *env) error {
	m := loadMap(e)
	if !m.Delete(c.key) {
		e.printf("Key not found\n")
		return nil
	}
	e.stage(e.kv, m)
	e.printf("Deleted key '%s'\n", c.key)
	return nil
}

type commandReset struct{}

func (c *commandReset) setup(a *App, parent commandParent) {
	const help = "Reset the database."
	cmd := parent.Command("reset", help)
	a.register(cmd, true, c.run)
}

func (c *commandReset) run(e *env) error {
	m := loadMap(e)
	m.Reset()
	e.stage(e.kv, m)
	e.printf("Database cleared\n")
	return nil
}
