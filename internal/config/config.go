// Package config loads gitswitch settings from a TOML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/ksteinfeldt/gitswitch/internal/gitcfg"
	"github.com/ksteinfeldt/gitswitch/internal/identity"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GITSWITCH_"

// EnvVarConfig names the config file when --config is not given.
const EnvVarConfig = EnvPrefix + "CONFIG"

// Config holds all gitswitch settings.
type Config struct {
	Store StoreConfig `toml:"store" envPrefix:"STORE_"`
	Key   KeyConfig   `toml:"key" envPrefix:"KEY_"`
	Git   GitConfig   `toml:"git" envPrefix:"GIT_"`
}

// StoreConfig locates the identity registry.
type StoreConfig struct {
	// Path is the registry file; its extension picks the format.
	Path string `toml:"path" env:"PATH"`
}

// KeyConfig controls which keys are accepted.
type KeyConfig struct {
	// Length is the exact key length; 0 accepts any length.
	Length int `toml:"length" env:"LENGTH"`

	// Pattern is an optional regular expression keys must match.
	Pattern string `toml:"pattern,omitempty" env:"PATTERN"`

	// FoldCase lower-cases keys before storage and lookup.
	FoldCase bool `toml:"fold_case" env:"FOLD_CASE"`
}

// GitConfig controls how the identity is written to git.
type GitConfig struct {
	// Executable is the git binary, looked up on PATH unless absolute.
	Executable string `toml:"executable" env:"EXECUTABLE"`

	// Backend is "exec" (run git) or "file" (edit the config file directly).
	Backend string `toml:"backend" env:"BACKEND"`

	// ConfigFile overrides the global git config file for the file backend.
	ConfigFile string `toml:"config_file,omitempty" env:"CONFIG_FILE"`
}

// Dir returns gitswitch's directory inside the user config directory.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, "gitswitch"), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns a config with sensible defaults.
func Default() *Config {
	cfg := &Config{
		Key: KeyConfig{
			Length:   identity.DefaultKeyLength,
			FoldCase: true,
		},
		Git: GitConfig{
			Executable: "git",
			Backend:    gitcfg.BackendExec,
		},
	}
	if dir, err := Dir(); err == nil {
		cfg.Store.Path = filepath.Join(dir, identity.RegistryFileName)
	}
	return cfg
}

// Options control where Load looks.
type Options struct {
	// Path is an explicit config file; "" uses $GITSWITCH_CONFIG or DefaultPath.
	Path string

	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Load reads defaults, then the config file, then environment overrides.
// A missing config file is not an error.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	path, explicit, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("loading config %s: %w", path, err)
			}
		}
	}

	envOpts := env.Options{Prefix: EnvPrefix, Environment: opts.Environment}
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(opts Options) (path string, explicit bool, err error) {
	if opts.Path != "" {
		return opts.Path, true, nil
	}

	lookup := os.Getenv
	if opts.Environment != nil {
		lookup = func(k string) string { return opts.Environment[k] }
	}
	if p := lookup(EnvVarConfig); p != "" {
		return p, true, nil
	}

	p, err := DefaultPath()
	if err != nil {
		// Without a config dir we can still run on defaults and env.
		return "", false, nil
	}
	return p, false, nil
}

// Validate checks the settings that can be wrong independently of the system.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is not set and no user config directory is available")
	}
	if _, err := c.KeyFormat(); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	switch c.Git.Backend {
	case gitcfg.BackendExec, gitcfg.BackendFile:
	default:
		return fmt.Errorf("git.backend must be %q or %q, got %q", gitcfg.BackendExec, gitcfg.BackendFile, c.Git.Backend)
	}
	return nil
}

// KeyFormat builds the identity.KeyFormat these settings describe.
func (c *Config) KeyFormat() (identity.KeyFormat, error) {
	return identity.NewKeyFormat(c.Key.Length, c.Key.Pattern, c.Key.FoldCase)
}

// Configurer builds the git configurer these settings select.
func (c *Config) Configurer() (gitcfg.Configurer, error) {
	return gitcfg.New(c.Git.Backend, c.Git.Executable, c.Git.ConfigFile)
}

// Encode writes the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the config file, creating its directory.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644) //nolint:gosec // G306: config is not secret
}
