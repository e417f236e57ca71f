package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ksteinfeldt/gitswitch/internal/identity"
	"github.com/ksteinfeldt/gitswitch/internal/picker"
)

// stdinIsTerminal reports whether the picker can take keyboard input.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// runPicker shows the picker; replaced in tests.
var runPicker = picker.Run

func newPickCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "pick",
		GroupID: GroupIdentity,
		Short:   "Choose an identity interactively and switch to it",
		Long: `Open an interactive list of registered identities. Enter switches git
to the highlighted identity; q or esc leaves without changes. Type / to filter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPick(cmd, opts)
		},
	}
}

func runPick(cmd *cobra.Command, opts *options) error {
	if !stdinIsTerminal() {
		return fmt.Errorf("pick needs an interactive terminal; use 'gitswitch <initials>' instead")
	}

	a, err := loadApp(opts)
	if err != nil {
		return err
	}

	ids, err := a.store.List()
	if err != nil && !errors.Is(err, identity.ErrRegistryMalformed) {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), noIdentitiesHint)
		return nil
	}

	var activeKey string
	if name, email, err := a.git.Identity(cmd.Context()); err == nil {
		for _, id := range ids {
			if id.Matches(name, email) {
				activeKey = id.Key
				break
			}
		}
	}

	choice, err := runPicker(cmd.Context(), ids, activeKey, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("running picker: %w", err)
	}
	if choice == nil {
		return nil
	}

	activate(cmd, a, choice)
	return nil
}
