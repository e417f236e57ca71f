package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksteinfeldt/gitswitch/internal/config"
	"github.com/ksteinfeldt/gitswitch/internal/style"
)

func newConfigCmd(opts *options) *cobra.Command {
	var initFile bool

	cmd := &cobra.Command{
		Use:     "config",
		GroupID: GroupSetup,
		Short:   "Show the effective configuration",
		Long: `Print the configuration gitswitch runs with, after applying the config
file and GITSWITCH_* environment overrides.

With --init, write a config file with the defaults if none exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(cmd, opts, initFile)
		},
	}
	cmd.Flags().BoolVar(&initFile, "init", false, "Write a default config file")

	return cmd
}

func runConfig(cmd *cobra.Command, opts *options, initFile bool) error {
	out := cmd.OutOrStdout()

	path := opts.configPath
	if path == "" {
		path = os.Getenv(config.EnvVarConfig)
	}
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if initFile {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.Default().Save(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(out, "%s Wrote %s\n", style.SuccessPrefix, path)
		return nil
	}

	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	data, err := a.cfg.Encode()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# %s\n%s", path, data)
	return nil
}
