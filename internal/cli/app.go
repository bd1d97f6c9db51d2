package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"snapkv/internal/config"
	"snapkv/internal/logging"
	"snapkv/internal/state"
	"snapkv/internal/store"
	badgerstore "snapkv/internal/store/badger"
	boltstore "snapkv/internal/store/bolt"
	"snapkv/internal/store/file"
)

// Version is reported by --version; overridden at link time.
var Version = "dev"

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var logger = logging.For("cli")

// App is one snapkv invocation: a kingpin application plus the registry of
// handlers its commands dispatch to.
type App struct {
	stdout   io.Writer
	stderr   io.Writer
	app      *kingpin.Application
	registry *CommandRegistry

	configPath string
	dataDir    string
	backend    string
	logLevel   string
	logFormat  string

	exitCode *int // set when kingpin asks to terminate (--help, --version)
}

// env is what a handler sees: resolved config, output, and one persistence
// adapter per store kind.
type env struct {
	stdout   io.Writer
	cfg      *config.Config
	kv       *state.Persistence
	profiles *state.Persistence

	staged []stagedSave
}

type stagedSave struct {
	p *state.Persistence
	s state.Snapshotter
}

func (e *env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.stdout, format, args...)
}

// stage queues s to be saved through p once a mutating handler returns.
func (e *env) stage(p *state.Persistence, s state.Snapshotter) {
	e.staged = append(e.staged, stagedSave{p: p, s: s})
}

// New builds the command tree. stdout receives command output, stderr
// receives usage errors and logs.
func New(stdout, stderr io.Writer) *App {
	a := &App{
		stdout:   stdout,
		stderr:   stderr,
		registry: NewCommandRegistry(),
	}

	app := kingpin.New("snapkv", "A simple binary key-value store.")
	app.Version(Version)
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	app.Terminate(func(code int) {
		if a.exitCode == nil {
			a.exitCode = &code
		}
	})

	app.Flag("config", "Path to a TOML config file.").PlaceHolder("FILE").StringVar(&a.configPath)
	app.Flag("data-dir", "Directory holding the snapshot files (overrides config).").StringVar(&a.dataDir)
	app.Flag("backend", "Snapshot backend: file, bolt or badger (overrides config).").StringVar(&a.backend)
	app.Flag("log-level", "Log level: debug, info, warn, error (overrides config).").StringVar(&a.logLevel)
	app.Flag("log-format", "Log format: auto, text, json, tint (overrides config).").StringVar(&a.logFormat)
	a.app = app

	a.setupKVCommands(app)
	a.setupProfileCommands(app.Command("profile", "Manage the ordered profile list."))
	(&commandInfo{}).setup(a, app)

	return a
}

// Run parses args, executes exactly one command and returns the exit code.
// Argument errors are reported before any snapshot is touched.
func (a *App) Run(args []string) int {
	name, err := a.app.Parse(args)
	if a.exitCode != nil {
		return *a.exitCode
	}
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "snapkv: error: %v, try --help\n", err)
		return ExitUsage
	}

	cmd, ok := a.registry.Lookup(name)
	if !ok {
		_, _ = fmt.Fprintf(a.stderr, "snapkv: error: no command selected, try --help\n")
		return ExitUsage
	}

	e, err := a.newEnv()
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "snapkv: %v\n", err)
		return ExitFailure
	}

	logger.Debug("running command", "command", name, "mutating", cmd.Mutating)
	if err := a.registry.Dispatch(name, e); err != nil {
		logger.Debug("command failed", "command", name, "err", err)
		_, _ = fmt.Fprintf(a.stderr, "snapkv: %v\n", err)
		return ExitFailure
	}
	return ExitOK
}

func (a *App) newEnv() (*env, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	// CLI flags override config file values
	if a.dataDir != "" {
		cfg.Storage.DataDir = a.dataDir
	}
	if a.backend != "" {
		cfg.Storage.Backend = a.backend
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logging.Init(cfg.Log.Level, cfg.Log.Format, a.stderr)

	return &env{
		stdout:   a.stdout,
		cfg:      cfg,
		kv:       state.NewPersistence(openBackend(cfg, cfg.KVSnapshotPath()), cfg.Storage.QuarantineCorrupt),
		profiles: state.NewPersistence(openBackend(cfg, cfg.ProfileSnapshotPath()), cfg.Storage.QuarantineCorrupt),
	}, nil
}

func openBackend(cfg *config.Config, path string) store.Backend {
	switch cfg.Storage.Backend {
	case config.BackendBolt:
		return boltstore.New(path)
	case config.BackendBadger:
		return badgerstore.New(path)
	default:
		return file.New(path, file.WithAtomicWrites(cfg.Storage.AtomicWrites))
	}
}

// errSave marks a failed snapshot write; the command's output is dropped.
var errSave = errors.New("changes were not saved")
