package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitswitch/internal/ctxlog"
	"github.com/ksteinfeldt/gitswitch/internal/identity"
	"github.com/ksteinfeldt/gitswitch/internal/style"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "import [path]",
		GroupID: GroupSetup,
		Short:   "Import identities from a GitSwitch gitusers.xml file",
		Long: `Import the identities saved by the original GitSwitch tool.

Without a path, gitusers.xml is read from the user config directory
(%AppData% on Windows). Keys that are already registered or invalid are
skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args)
		},
	}
}

func runImport(cmd *cobra.Command, opts *options, args []string) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var path string
	if len(args) == 1 {
		path = args[0]
	} else if path, err = identity.DefaultLegacyPath(); err != nil {
		return err
	}

	ids, err := identity.ReadLegacy(path)
	if err != nil {
		return err
	}

	res, err := a.store.Import(ids)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	if res.Reset != nil {
		ctxlog.FromContext(cmd.Context()).Warn("identity registry unreadable; started a new one",
			"path", a.store.Path(), "backup", a.store.BackupPath(), "err", res.Reset)
	}
	for _, key := range res.Added {
		fmt.Fprintf(out, "%s Imported %s\n", style.SuccessPrefix, style.Key.Render(key))
	}
	for _, sk := range res.Skipped {
		fmt.Fprintf(out, "%s Skipped %q: %v\n", style.WarningPrefix, sk.Key, sk.Err)
	}
	fmt.Fprintf(out, "%d imported, %d skipped from %s\n", len(res.Added), len(res.Skipped), path)
	return nil
}
