package gitcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Runner starts a command and waits for it. It returns the command's
// standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: executable comes from user config
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return out, err
	}
	return out, nil
}

// ExecConfigurer drives `git config --global`.
type ExecConfigurer struct {
	// Executable is the git binary name or path.
	Executable string

	// Run starts commands; nil means ExecRunner.
	Run Runner
}

// NewExecConfigurer creates an ExecConfigurer for the given executable.
func NewExecConfigurer(executable string) *ExecConfigurer {
	if executable == "" {
		executable = "git"
	}
	return &ExecConfigurer{Executable: executable, Run: ExecRunner}
}

func (c *ExecConfigurer) run(ctx context.Context, args ...string) ([]byte, error) {
	run := c.Run
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, c.Executable, args...)
	if err != nil && isNotFound(err) {
		return nil, fmt.Errorf("%w: %s: %v", ErrGitNotFound, c.Executable, err)
	}
	return out, err
}

// SetIdentity runs `git config --global user.name` and then
// `git config --global user.email`, each to completion.
func (c *ExecConfigurer) SetIdentity(ctx context.Context, name, email string) error {
	if _, err := c.run(ctx, "config", "--global", "user.name", name); err != nil {
		return fmt.Errorf("setting user.name: %w", err)
	}
	if _, err := c.run(ctx, "config", "--global", "user.email", email); err != nil {
		return fmt.Errorf("setting user.email: %w", err)
	}
	return nil
}

// Identity reads user.name and user.email with `git config --global --get`.
func (c *ExecConfigurer) Identity(ctx context.Context) (string, string, error) {
	name, err := c.get(ctx, "user.name")
	if err != nil {
		return "", "", err
	}
	email, err := c.get(ctx, "user.email")
	if err != nil {
		return "", "", err
	}
	return name, email, nil
}

func (c *ExecConfigurer) get(ctx context.Context, key string) (string, error) {
	out, err := c.run(ctx, "config", "--global", "--get", key)
	if err != nil {
		// git exits 1 when the key is not set.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// isNotFound reports whether err means the executable could not be started.
func isNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	var execErr *exec.Error
	return errors.As(err, &execErr)
}
