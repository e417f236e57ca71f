package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitswitch/internal/doctor"
	"github.com/ksteinfeldt/gitswitch/internal/style"
)

func newDoctorCmd(opts *options) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:     "doctor",
		GroupID: GroupSetup,
		Short:   "Check git, the config and the identity registry",
		Long: `Run health checks:

  git-executable     the configured git binary can be found
  identity-registry  the registry parses and keys are valid and unique
  active-identity    git's global identity is a registered one

With --fix, the registry is rewritten with normalised, de-duplicated keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts, fix)
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Repair problems that can be fixed automatically")

	return cmd
}

func runDoctor(cmd *cobra.Command, opts *options, fix bool) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ctx := &doctor.CheckContext{
		Ctx:        cmd.Context(),
		Config:     a.cfg,
		Store:      a.store,
		Configurer: a.git,
	}
	checks := doctor.DefaultChecks()
	results := doctor.Run(ctx, checks, fix)

	for i, r := range results {
		prefix := style.SuccessPrefix
		switch r.Status {
		case doctor.StatusWarning:
			prefix = style.WarningPrefix
		case doctor.StatusError:
			prefix = style.ErrorPrefix
		}
		fmt.Fprintf(out, "%s %s: %s\n", prefix, style.Bold.Render(r.Name), r.Message)
		if r.Status != doctor.StatusOK {
			fmt.Fprintf(out, "    %s\n", style.Dim.Render(checks[i].Description()))
		}
		for _, d := range r.Details {
			fmt.Fprintf(out, "    %s\n", style.Dim.Render(d))
		}
		if r.FixHint != "" {
			fmt.Fprintf(out, "    → %s\n", r.FixHint)
		}
	}

	if doctor.Worst(results) == doctor.StatusError {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}
