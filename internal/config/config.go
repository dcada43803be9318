// Package config holds the YAML configuration of the notebox CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultStore      = "."
	DefaultAdapter    = "fs"
	DefaultListen     = "127.0.0.1:8080"
	DefaultBackupCron = "0 3 * * *"
	DefaultBackupKeep = 7
)

// BackupConfig controls scheduled snapshots in `notebox serve`.
type BackupConfig struct {
	// Enabled turns the scheduler on.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Cron is a 5-field cron expression or a descriptor like "@every 1h".
	Cron string `yaml:"cron" json:"cron"`
	// Keep is how many snapshots survive a prune. Zero disables pruning.
	Keep int `yaml:"keep" json:"keep"`
}

// Config is the top-level CLI configuration.
type Config struct {
	// Store is the store location (directory for fs, directory or file for sqlite).
	Store string `yaml:"store" json:"store"`

	// Adapter is one of "fs", "sqlite" or "memory".
	Adapter string `yaml:"adapter" json:"adapter"`

	// Versioning enables git history for the fs adapter.
	Versioning bool `yaml:"versioning" json:"versioning"`

	// Listen is the HTTP listen address used by `notebox serve`.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone for calendar day boundaries. Empty means local.
	Timezone string `yaml:"timezone" json:"timezone"`

	Backup BackupConfig `yaml:"backup" json:"backup"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store:   DefaultStore,
		Adapter: DefaultAdapter,
		Listen:  DefaultListen,
		Backup: BackupConfig{
			Enabled: true,
			Cron:    DefaultBackupCron,
			Keep:    DefaultBackupKeep,
		},
	}
}

// Normalize fills in missing values so partially-filled files still work.
func (c *Config) Normalize() {
	if c.Store == "" {
		c.Store = DefaultStore
	}
	switch c.Adapter {
	case "fs", "sqlite", "memory":
	default:
		c.Adapter = DefaultAdapter
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Backup.Cron == "" {
		c.Backup.Cron = DefaultBackupCron
	}
	if c.Backup.Keep < 0 {
		c.Backup.Keep = 0
	}
}

// Location resolves Timezone. An empty value means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads the YAML file at path.
//
// On first run (no file) it writes the default configuration with 0600
// permissions and returns it.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".notebox-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
