package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/battery-alert/internal/config"
)

var errConfigExists = errors.New("config file already exists")

func newResetCommand(opts *options) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reset [--older-than DURATION]",
		Short: "Forget which thresholds were already notified",
		Long: `Clear the persisted alarm state so the next check notifies again for every active threshold.
With --older-than only entries last written before now minus DURATION are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.logTopics)
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if olderThan > 0 {
				n, err := store.DeleteOlderThan(time.Now().Add(-olderThan))
				if err != nil {
					logger.Error("prune state", "err", err)
					return err
				}
				logger.Info("state pruned", "backend", cfg.State.Backend, "deleted", n)
				return nil
			}
			if err := store.Reset(); err != nil {
				logger.Error("reset state", "err", err)
				return err
			}
			logger.Info("state cleared", "backend", cfg.State.Backend)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "only remove entries older than this, e.g. 24h")

	return cmd
}

func newInitConfigCommand(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [PATH]",
		Short: "Write the effective configuration to a TOML file",
		Long: `Write the current configuration (defaults merged with --config, if given)
to PATH, or to /etc/battery-alert/config.toml when PATH is omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s: %w, use --force to overwrite", path, errConfigExists)
				}
			}
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
