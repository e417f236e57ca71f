package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitswitch/internal/ctxlog"
	"github.com/ksteinfeldt/gitswitch/internal/identity"
	"github.com/ksteinfeldt/gitswitch/internal/style"
)

const noIdentitiesHint = `No identities registered. Run 'gitswitch -n <initials> "<name>" <email>' to add one.`

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		GroupID: GroupIdentity,
		Short:   "Show all registered identities",
		Long: `List every registered identity with its initials, name and email.

The identity git is currently configured with is marked with an asterisk (*).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <initials>",
		GroupID: GroupIdentity,
		Short:   "Remove a registered identity",
		Long: `Remove an identity from the registry.

git's configuration is left alone, even if the identity is active.

Example:
  gitswitch remove jqp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts, args[0])
		},
	}
}

func newCurrentCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "current",
		Aliases: []string{"whoami"},
		GroupID: GroupIdentity,
		Short:   "Show git's active global identity",
		Long: `Show the user.name and user.email in git's global configuration
and which registered identity, if any, they belong to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCurrent(cmd, opts)
		},
	}
}

func newCaptureCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "capture [initials]",
		GroupID: GroupIdentity,
		Short:   "Register git's active global identity",
		Long: `Register the user.name and user.email git is currently configured with.

Without initials, they are derived from the name ("John Q. Person" -> jqp).

Examples:
  gitswitch capture          # Derive initials from the name
  gitswitch capture jqp      # Use explicit initials`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, opts, args)
		},
	}
}

func runList(cmd *cobra.Command, opts *options) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	log := ctxlog.FromContext(cmd.Context())

	ids, err := a.store.List()
	if err != nil {
		if !errors.Is(err, identity.ErrRegistryMalformed) {
			return err
		}
		fmt.Fprintf(out, "%s Error reading identity registry: %s\n", style.WarningPrefix, a.store.Path())
		log.Warn("reading identity registry", "path", a.store.Path(), "err", err)
		ids = nil
	}

	if len(ids) == 0 {
		fmt.Fprintln(out, noIdentitiesHint)
		return nil
	}

	name, email, err := a.git.Identity(cmd.Context())
	if err != nil {
		log.Debug("reading git identity", "err", err)
	}

	fmt.Fprintf(out, "Identities in %s:\n", a.store.Path())
	for _, id := range ids {
		marker := "  "
		if err == nil && id.Matches(name, email) {
			marker = style.ActivePrefix + " "
		}
		fmt.Fprintf(out, "  %s%s  %s\n", marker, style.Key.Render(id.Key), id.String())
	}

	return nil
}

func runRemove(cmd *cobra.Command, opts *options, key string) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}

	if err := a.store.Remove(key); err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) || errors.Is(err, identity.ErrRegistryNotFound) {
			return fmt.Errorf("%s not registered. Run 'gitswitch list' to see registered identities", a.keys.Normalize(key))
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", style.SuccessPrefix, style.Key.Render(a.keys.Normalize(key)))
	return nil
}

func runCurrent(cmd *cobra.Command, opts *options) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	name, email, err := a.git.Identity(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading git identity: %w", err)
	}

	if name == "" && email == "" {
		fmt.Fprintln(out, style.Dim.Render("No global git identity set."))
		fmt.Fprintln(out, `Run 'gitswitch <initials>' to activate a registered identity.`)
		return nil
	}

	fmt.Fprintf(out, "%s %s\n", style.Bold.Render("Name: "), name)
	fmt.Fprintf(out, "%s %s\n", style.Bold.Render("Email:"), email)

	reg, _ := a.store.LoadOrEmpty()
	if id := reg.FindByIdentity(name, email); id != nil {
		fmt.Fprintf(out, "%s %s\n", style.Bold.Render("Key:  "), style.Key.Render(id.Key))
	} else {
		fmt.Fprintf(out, "%s %s\n", style.Bold.Render("Key:  "), style.Dim.Render("(not registered)"))
	}
	return nil
}

func runCapture(cmd *cobra.Command, opts *options, args []string) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	name, email, err := a.git.Identity(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading git identity: %w", err)
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return fmt.Errorf("git has no global user.name and user.email to capture")
	}

	reg, _ := a.store.LoadOrEmpty()
	if id := reg.FindByIdentity(name, email); id != nil {
		fmt.Fprintf(out, "%s %s is already registered as %s\n", style.WarningPrefix, id.String(), style.Key.Render(id.Key))
		return nil
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		key = identity.SuggestKey(name, email, a.keys)
		if key == "" {
			return fmt.Errorf("cannot derive initials (%s) from %q; pass them explicitly", a.keys.Describe(), name)
		}
	}

	return runRegister(cmd, a, key, name, email)
}
