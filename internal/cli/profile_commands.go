package cli

import (
	"snapkv/internal/state"
)

func (a *App) setupProfileCommands(parent commandParent) {
	(&commandProfileAdd{}).setup(a, parent)
	(&commandProfileList{}).setup(a, parent)
	(&commandProfileDelete{}).setup(a, parent)
	(&commandProfileReset{}).setup(a, parent)
}

func loadProfiles(e *env) *state.Profiles {
	p := state.NewProfiles()
	e.profiles.Load(p)
	return p
}

type commandProfileAdd struct {
	name string
	age  uint32
}

func (c *commandProfileAdd) setup(a *App, parent commandParent) {
	const help = "Append a profile."
	cmd := parent.Command("add", help)
	utf8StringVar(cmd.Arg("name", "Profile name.").Required(), &c.name)
	cmd.Arg("age", "Age (unsigned integer).").Required().Uint32Var(&c.age)
	a.register(cmd, true, c.run)
}

func (c *commandProfileAdd) run(e *env) error {
	p := loadProfiles(e)
	p.Add(c.name, c.age)
	e.stage(e.profiles, p)
	e.printf("Added profile '%s' (age %d)\n", c.name, c.age)
	return nil
}

type commandProfileList struct{}

func (c *commandProfileList) setup(a *App, parent commandParent) {
	const help = "List profiles in order."
	cmd := parent.Command("list", help).Alias("ls")
	a.register(cmd, false, c.run)
}

func (c *commandProfileList) run(e *env) error {
	items := loadProfiles(e).List()
	if len(items) == 0 {
		e.printf("No profiles\n")
		return nil
	}
	for i, it := range items {
		e.printf("[%d] %s, age %d\n", i, it.Name, it.Age)
	}
	return nil
}

type commandProfileDelete struct {
	index uint64
}

func (c *commandProfileDelete) setup(a *App, parent commandParent) {
	const help = "Delete the profile at an index; later profiles shift down."
	cmd := parent.Command("delete", help).Alias("rm")
	cmd.Arg("index", "Zero-based position.").Required().Uint64Var(&c.index)
	a.register(cmd, true, c.run)
}

func (c *commandProfileDelete) run(e *env) error {
	p := loadProfiles(e)
	if !p.Delete(c.index) {
		e.printf("Invalid index\n")
		return nil
	}
	e.stage(e.profiles, p)
	e.printf("Deleted profile at index %d\n", c.index)
	return nil
}

type commandProfileReset struct{}

func (c *commandProfileReset) setup(a *App, parent commandParent) {
	const help = "Remove all profiles."
	cmd := parent.Command("reset", help)
	a.register(cmd, true, c.run)
}

func (c *commandProfileReset) run(e *env) error {
	p := loadProfiles(e)
	p.Reset()
	e.stage(e.profiles, p)
	e.printf("All profiles cleared\n")
	return nil
}
