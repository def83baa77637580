package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
)

type thresholdStatus struct {
	Threshold int    `json:"threshold" yaml:"threshold"`
	Alarm     bool   `json:"alarm" yaml:"alarm"`
	Notified  bool   `json:"notified" yaml:"notified"` // persisted edge state from the last run
	StatePath string `json:"state_path" yaml:"state_path"`
}

type statusReport struct {
	Mode          string            `json:"mode" yaml:"mode"`
	Percent       float64           `json:"percent" yaml:"percent"`
	Discharging   bool              `json:"discharging" yaml:"discharging"`
	TimeRemaining string            `json:"time_remaining,omitempty" yaml:"time_remaining,omitempty"`
	Batteries     []string          `json:"batteries,omitempty" yaml:"batteries,omitempty"`
	Thresholds    []thresholdStatus `json:"thresholds" yaml:"thresholds"`
}

func newStatusCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status [--format text|json|yaml]",
		Short: "Print the battery state and threshold alarms without notifying",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, err := positionalBatteries(cmd, args)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.logTopics)
			a, err := newApp(opts, positional, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.status()
			if err != nil {
				return err
			}
			return writeStatus(cmd.OutOrStdout(), format, report)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")

	return cmd
}

func (a *app) status() (*statusReport, error) {
	snap, err := a.monitor.Snapshot()
	if err != nil {
		return nil, err
	}

	report := &statusReport{
		Mode:          "single",
		Percent:       snap.Percent,
		Discharging:   snap.Discharging,
		TimeRemaining: snap.TimeRemaining,
		Batteries:     snap.Details,
	}
	if snap.Multiple {
		report.Mode = "multiple"
	}

	for _, th := range a.monitor.Thresholds {
		path := a.monitor.Checker.StatePath(th)
		prev, err := a.store.Previous(path)
		if err != nil {
			a.log.Warn("read state", "path", path, "err", err)
		}
		report.Thresholds = append(report.Thresholds, thresholdStatus{
			Threshold: th,
			Alarm:     alert.IsAlarm(th, snap.Percent, snap.Discharging),
			Notified:  prev,
			StatePath: path,
		})
	}
	return report, nil
}

func writeStatus(w io.Writer, format string, report *statusReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		writeStatusText(w, report)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeStatusText(w io.Writer, report *statusReport) {
	bold := color.New(color.Bold).SprintFunc()

	state := color.GreenString("not discharging")
	if report.Discharging {
		state = color.RedString("discharging")
	}
	fmt.Fprintf(w, "%s %.1f%% (%s, %s mode)\n", bold("Battery:"), report.Percent, state, report.Mode)
	if report.TimeRemaining != "" {
		fmt.Fprintf(w, "  Remaining time: %s\n", report.TimeRemaining)
	}
	for _, b := range report.Batteries {
		fmt.Fprintf(w, "  %s\n", b)
	}

	fmt.Fprintln(w, bold("Thresholds:"))
	for _, th := range report.Thresholds {
		alarm := color.GreenString("ok")
		if th.Alarm {
			alarm = color.RedString("alarm")
		}
		notified := "no"
		if th.Notified {
			notified = "yes"
		}
		fmt.Fprintf(w, "  %3d%%: %s (notified: %s)\n", th.Threshold, alarm, notified)
	}
}
