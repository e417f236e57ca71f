// Package cmd implements the gitswitch command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitswitch/internal/config"
	"github.com/ksteinfeldt/gitswitch/internal/ctxlog"
	"github.com/ksteinfeldt/gitswitch/internal/gitcfg"
	"github.com/ksteinfeldt/gitswitch/internal/identity"
	"github.com/ksteinfeldt/gitswitch/internal/style"
)

// Command groups shown in help.
const (
	GroupIdentity = "identity"
	GroupSetup    = "setup"
)

// options are the flags shared by every command.
type options struct {
	configPath string
	verbose    bool
	register   bool
}

// app is what a command works with once configuration is loaded.
type app struct {
	cfg   *config.Config
	keys  identity.KeyFormat
	store *identity.Store
	git   gitcfg.Configurer
}

// newConfigurer builds the git configurer for a config.
var newConfigurer = func(cfg *config.Config) (gitcfg.Configurer, error) {
	return cfg.Configurer()
}

func loadApp(opts *options) (*app, error) {
	cfg, err := config.Load(config.Options{Path: opts.configPath})
	if err != nil {
		return nil, err
	}
	keys, err := cfg.KeyFormat()
	if err != nil {
		return nil, err
	}
	git, err := newConfigurer(cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:   cfg,
		keys:  keys,
		store: identity.NewStore(cfg.Store.Path, keys),
		git:   git,
	}, nil
}

// validKey reports whether arg is usable as a key once normalised.
func (a *app) validKey(arg string) bool {
	return a.keys.Validate(a.keys.Normalize(arg)) == nil
}

// NewRootCmd creates the root command for gitswitch.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gitswitch <initials>",
		Short: "Switch git's global user.name and user.email between registered identities",
		Long: `gitswitch keeps a small registry of identities (initials, name, email)
and switches git's global configuration to one of them.

Switching runs 'git config --global user.name' and then
'git config --global user.email' with the registered values.`,
		Example: `  gitswitch jqp                                       # Switch git to the identity registered as jqp
  gitswitch -n jqp "John Q. Person" jqp@example.com   # Register a new identity`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger := ctxlog.New(cmd.ErrOrStderr(), opts.verbose)
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.register, "new", "n", false, `Register a new identity: -n <initials> "<name>" <email>`)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default $GITSWITCH_CONFIG or <user config dir>/gitswitch/config.toml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	// Bad flags print usage like any other unrecognised invocation.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(c.OutOrStdout(), "%s %v\n", style.ErrorPrefix, err)
		return c.Usage()
	})

	cmd.AddGroup(
		&cobra.Group{ID: GroupIdentity, Title: "Identity Commands:"},
		&cobra.Group{ID: GroupSetup, Title: "Setup Commands:"},
	)
	cmd.AddCommand(
		newListCmd(opts),
		newRemoveCmd(opts),
		newCurrentCmd(opts),
		newCaptureCmd(opts),
		newPickCmd(opts),
		newImportCmd(opts),
		newDoctorCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs gitswitch with os.Args and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	root.SetOut(os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.ErrorPrefix, err)
		return 1
	}
	return 0
}

func runRoot(cmd *cobra.Command, opts *options, args []string) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}

	switch {
	case opts.register && len(args) == 3 && a.validKey(args[0]):
		return runRegister(cmd, a, args[0], args[1], args[2])
	case !opts.register && len(args) == 1 && a.validKey(args[0]):
		return runSwitch(cmd, a, args[0])
	default:
		return printUsage(cmd, a)
	}
}

// printUsage writes root usage to stdout. It never fails the command, and
// subcommands that share the register path print nothing.
func printUsage(cmd *cobra.Command, a *app) error {
	if cmd != cmd.Root() {
		return nil
	}
	_ = cmd.Usage()
	fmt.Fprintf(cmd.OutOrStdout(), "\nInitials must be %s.\n", a.keys.Describe())
	return nil
}
