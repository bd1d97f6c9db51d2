package cli

import (
	"snapkv/internal/state"
)

// commandInfo reports where a snapshot lives and whether it loaded, was
// missing, unreadable or corrupt.
type commandInfo struct {
	profiles bool
}

func (c *commandInfo) setup(a *App, parent commandParent) {
	const help = "Show snapshot location and load status."
	cmd := parent.Command("info", help)
	cmd.Flag("profiles", "Inspect the profile snapshot instead of the key-value one.").BoolVar(&c.profiles)
	a.register(cmd, false, c.run)
}

func (c *commandInfo) run(e *env) error {
	p, s := e.kv, state.Snapshotter(state.NewMap())
	if c.profiles {
		p, s = e.profiles, state.NewProfiles()
	}
	res := p.Load(s)

	e.printf("kind:     %s\n", s.Kind())
	e.printf("backend:  %s\n", e.cfg.Storage.Backend)
	e.printf("location: %s\n", p.Backend().Location())
	e.printf("status:   %s\n", res)
	e.printf("entries:  %d\n", s.Len())
	return nil
}
