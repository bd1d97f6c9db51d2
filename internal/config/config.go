package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"snapkv/internal/logging"
)

// Snapshot backends.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendBadger = "badger"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

type StorageConfig struct {
	Backend           string `toml:"backend"`
	DataDir           string `toml:"data_dir"`
	KVPath            string `toml:"kv_path"`
	ProfilePath       string `toml:"profile_path"`
	AtomicWrites      bool   `toml:"atomic_writes"`
	QuarantineCorrupt bool   `toml:"quarantine_corrupt"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns a Config with sane defaults: flat files in the working
// directory, warnings and errors only.
func Defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:     BackendFile,
			DataDir:     ".",
			KVPath:      "kvstore.db",
			ProfilePath: "profiles.db",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: logging.FormatAuto,
		},
	}
}

// Load reads a TOML config file on top of the defaults.
// If path is empty, only defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing config: unknown keys: %s", strings.Join(keys, ", "))
	}

	return cfg, nil
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendFile, BackendBolt, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q (want file, bolt or badger)", c.Storage.Backend))
	}
	if c.Storage.KVPath == "" {
		errs = append(errs, errors.New("storage.kv_path: must not be empty"))
	}
	if c.Storage.ProfilePath == "" {
		errs = append(errs, errors.New("storage.profile_path: must not be empty"))
	}
	if c.Storage.KVPath != "" && c.Storage.ProfilePath != "" && c.KVSnapshotPath() == c.ProfileSnapshotPath() {
		errs = append(errs, fmt.Errorf("storage: kv_path and profile_path both resolve to %s", c.KVSnapshotPath()))
	}
	if c.Storage.AtomicWrites && c.Storage.Backend != BackendFile {
		errs = append(errs, errors.New("storage.atomic_writes: only supported by the file backend"))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// KVSnapshotPath is where the key-value snapshot lives.
func (c *Config) KVSnapshotPath() string {
	return c.resolve(c.Storage.KVPath)
}

// ProfileSnapshotPath is where the profile snapshot lives.
func (c *Config) ProfileSnapshotPath() string {
	return c.resolve(c.Storage.ProfilePath)
}

func (c *Config) resolve(p string) string {
	p = ExpandHome(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(ExpandHome(c.Storage.DataDir), p)
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
