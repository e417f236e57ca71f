// Package gitcfg reads and writes the identity in git's global configuration.
package gitcfg

import (
	"context"
	"errors"
)

// ErrGitNotFound indicates the git executable could not be started.
var ErrGitNotFound = errors.New("git executable not found")

// Configurer activates an identity in git's global configuration.
type Configurer interface {
	// SetIdentity writes user.name then user.email.
	SetIdentity(ctx context.Context, name, email string) error

	// Identity returns the currently configured user.name and user.email.
	// Unset values are returned as "".
	Identity(ctx context.Context) (name, email string, err error)
}

const (
	// BackendExec runs the git executable.
	BackendExec = "exec"

	// BackendFile edits the global config file in process.
	BackendFile = "file"
)
