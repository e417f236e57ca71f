package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitswitch/internal/ctxlog"
	"github.com/ksteinfeldt/gitswitch/internal/gitcfg"
	"github.com/ksteinfeldt/gitswitch/internal/identity"
	"github.com/ksteinfeldt/gitswitch/internal/style"
)

func runRegister(cmd *cobra.Command, a *app, key, name, email string) error {
	out := cmd.OutOrStdout()
	log := ctxlog.FromContext(cmd.Context())

	id := identity.Identity{Key: key, Name: name, Email: email}
	reason, err := a.store.Register(id)
	if reason != nil {
		log.Warn("identity registry unreadable; started a new one",
			"path", a.store.Path(), "backup", a.store.BackupPath(), "err", reason)
	}
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrIdentityExists):
			fmt.Fprintf(out, "%s %s already registered\n", style.WarningPrefix, a.keys.Normalize(key))
			return printUsage(cmd, a)
		case errors.Is(err, identity.ErrInvalidIdentity), errors.Is(err, identity.ErrInvalidKey):
			fmt.Fprintf(out, "%s %v\n", style.ErrorPrefix, err)
			return printUsage(cmd, a)
		default:
			return fmt.Errorf("registering %s: %w", key, err)
		}
	}

	id.Key = a.keys.Normalize(key)
	log.Debug("registered identity", "key", id.Key, "path", a.store.Path())
	fmt.Fprintf(out, "%s Registered %s: %s\n", style.SuccessPrefix, style.Key.Render(id.Key), id.String())
	return nil
}

func runSwitch(cmd *cobra.Command, a *app, key string) error {
	out := cmd.OutOrStdout()
	log := ctxlog.FromContext(cmd.Context())
	key = a.keys.Normalize(key)

	id, err := a.store.Get(key)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrIdentityNotFound), errors.Is(err, identity.ErrRegistryNotFound):
			log.Debug("lookup failed", "key", key, "err", err)
		default:
			// Unreadable state counts as an empty registry.
			fmt.Fprintf(out, "%s Error reading identity registry: %s\n", style.WarningPrefix, a.store.Path())
			log.Warn("reading identity registry", "path", a.store.Path(), "err", err)
		}
		fmt.Fprintf(out, "%s %s not registered\n", style.ErrorPrefix, key)
		return printUsage(cmd, a)
	}

	activate(cmd, a, id)
	return nil
}

// activate points git at id and reports the outcome. Failures are printed,
// not returned.
func activate(cmd *cobra.Command, a *app, id *identity.Identity) {
	out := cmd.OutOrStdout()
	log := ctxlog.FromContext(cmd.Context())

	if err := a.git.SetIdentity(cmd.Context(), id.Name, id.Email); err != nil {
		log.Debug("git config failed", "key", id.Key, "err", err)
		if errors.Is(err, gitcfg.ErrGitNotFound) {
			fmt.Fprintf(out, "%s Git executable not found. Make sure Git is installed and in the PATH\n", style.ErrorPrefix)
			return
		}
		fmt.Fprintf(out, "%s Could not update git config: %v\n", style.ErrorPrefix, err)
		return
	}

	fmt.Fprintf(out, "%s Switched to %s: %s\n", style.SuccessPrefix, style.Key.Render(id.Key), id.String())
}
