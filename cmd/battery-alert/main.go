package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
)

func main() {
	if err := NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewCommand builds the root command. Running it without a subcommand is
// the same as "check".
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "battery-alert [--multiple] [--batteries NAME...]",
		Short: "Show a desktop popup when the battery runs low",
		Long: `battery-alert reads the battery once, compares the charge with each
threshold and shows a popup the first time the charge is at or below a
threshold while discharging. Run it periodically from a timer.

Without flags the acpi tool is queried. --multiple sums the energy of every
battery in sysfs; --batteries limits that to the named batteries.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to the TOML config (default /etc/battery-alert/config.toml if present)")
	pf.BoolVar(&opts.verbose, "verbose", false, "enable all verbose logging (equivalent to --log=all)")
	pf.StringVar(&opts.logTopics, "log", "", "comma-separated log topics: battery,threshold,notify (or 'all')")
	pf.BoolVar(&opts.multiple, "multiple", false, "aggregate all batteries from sysfs instead of querying acpi")
	pf.StringSliceVar(&opts.batteries, "batteries", nil, "battery names to aggregate, e.g. --batteries BAT0 BAT1 (implies --multiple)")

	cmd.AddCommand(
		newCheckCommand(opts),
		newStatusCommand(opts),
		newResetCommand(opts),
		newInitConfigCommand(opts),
	)

	return cmd
}

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [--multiple] [--batteries NAME...]",
		Short: "Check every threshold once and notify on new alarms",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}
}

// positionalBatteries allows the "--batteries BAT0 BAT1" form: names after
// the flag arrive as positional arguments.
func positionalBatteries(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if f := cmd.Flag("batteries"); f == nil || !f.Changed {
		return nil, fmt.Errorf("unexpected arguments %q (battery names must follow --batteries)", args)
	}
	return args, nil
}

func runCheck(cmd *cobra.Command, opts *options, args []string) error {
	positional, err := positionalBatteries(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.logTopics)

	a, err := newApp(opts, positional, logger)
	if err != nil {
		logger.Error("setup", "err", err)
		return err
	}
	defer a.Close()

	results, err := a.monitor.RunAll()
	if err != nil {
		logger.Error("check failed", "err", err)
		return err
	}
	notified := 0
	for _, r := range results {
		if r.Outcome == alert.Notified {
			notified++
		}
	}
	logger.Debug("check done", "thresholds", len(results), "notified", notified)
	return nil
}
