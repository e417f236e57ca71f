package gitcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gitconfig "github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/google/uuid"
)

// GlobalConfigPath returns the file `git config --global` writes to:
// $GIT_CONFIG_GLOBAL, else ~/.gitconfig if it exists, else
// $XDG_CONFIG_HOME/git/config if it exists, else ~/.gitconfig.
func GlobalConfigPath() (string, error) {
	if p := os.Getenv("GIT_CONFIG_GLOBAL"); p != "" {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dotfile := filepath.Join(home, ".gitconfig")
	if _, err := os.Stat(dotfile); err == nil {
		return dotfile, nil
	}

	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".config")
	}
	xdgFile := filepath.Join(xdg, "git", "config")
	if _, err := os.Stat(xdgFile); err == nil {
		return xdgFile, nil
	}

	return dotfile, nil
}

// FileConfigurer edits the global git config file without running git.
// Comments in the file are not preserved.
type FileConfigurer struct {
	// Path is the config file; "" resolves GlobalConfigPath on each call.
	Path string
}

// NewFileConfigurer creates a FileConfigurer for path.
func NewFileConfigurer(path string) *FileConfigurer {
	return &FileConfigurer{Path: path}
}

func (c *FileConfigurer) path() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	return GlobalConfigPath()
}

func (c *FileConfigurer) load(path string) (*gitconfig.Config, error) {
	cfg := gitconfig.New()
	data, err := os.ReadFile(path) //nolint:gosec // G304: git config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading git config: %w", err)
	}
	if err := gitconfig.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing git config %s: %w", path, err)
	}
	return cfg, nil
}

// SetIdentity sets [user] name and email and rewrites the file.
func (c *FileConfigurer) SetIdentity(_ context.Context, name, email string) error {
	path, err := c.path()
	if err != nil {
		return err
	}
	// Write through a symlinked config (dotfiles setups) like git does.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("resolving git config path: %w", err)
	}
	cfg, err := c.load(path)
	if err != nil {
		return err
	}

	cfg.Section("user").
		SetOption("name", name).
		SetOption("email", email)

	var buf bytes.Buffer
	if err := gitconfig.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding git config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil { //nolint:gosec // G306: git config is not secret
		return fmt.Errorf("writing git config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing git config: %w", err)
	}
	return nil
}

// Identity reads [user] name and email from the file.
func (c *FileConfigurer) Identity(_ context.Context) (string, string, error) {
	path, err := c.path()
	if err != nil {
		return "", "", err
	}
	cfg, err := c.load(path)
	if err != nil {
		return "", "", err
	}
	user := cfg.Section("user")
	return user.Option("name"), user.Option("email"), nil
}

// New returns the Configurer for a backend name.
func New(backend, executable, configFile string) (Configurer, error) {
	switch backend {
	case "", BackendExec:
		return NewExecConfigurer(executable), nil
	case BackendFile:
		return NewFileConfigurer(configFile), nil
	default:
		return nil, fmt.Errorf("unknown git backend %q (want %q or %q)", backend, BackendExec, BackendFile)
	}
}
