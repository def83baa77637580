package alert

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cptspacemanspiff/battery-alert/internal/battery"
)

// SingleReader reads the acpi-style single battery summary.
type SingleReader interface {
	ReadSingle() (*battery.SingleReading, error)
}

// MultiReader reads individual batteries for aggregation.
type MultiReader interface {
	ReadMultiple(ids []string) ([]battery.Reading, error)
}

// Monitor performs one polling run: read, aggregate, check every threshold.
type Monitor struct {
	Single     SingleReader
	Multi      MultiReader
	Multiple   bool     // aggregate batteries instead of querying acpi
	Batteries  []string // explicit ids; implies multi mode
	Thresholds []int
	Checker    *Checker
	Delegate   Delegate
	Log        *slog.Logger
}

// Result is the per-threshold outcome of a run.
type Result struct {
	Request Request
	Outcome Outcome
}

func (m *Monitor) multiMode() bool {
	return m.Multiple || len(m.Batteries) > 0
}

func (m *Monitor) logger() *slog.Logger {
	if m.Log == nil {
		return slog.Default()
	}
	return m.Log
}

// Snapshot reads the battery once in the configured mode.
func (m *Monitor) Snapshot() (Snapshot, error) {
	log := m.logger().With("topic", "battery")

	if !m.multiMode() {
		r, err := m.Single.ReadSingle()
		if err != nil {
			return Snapshot{}, fmt.Errorf("read battery: %w", err)
		}
		log.Info("sample", "percent", r.Percent, "charging", r.Charging, "remaining", r.TimeRemaining)
		return Snapshot{
			Percent:       float64(r.Percent),
			Discharging:   !r.Charging,
			TimeRemaining: r.TimeRemaining,
		}, nil
	}

	readings, err := m.Multi.ReadMultiple(m.Batteries)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read batteries: %w", err)
	}
	for _, r := range readings {
		log.Debug("battery",
			"id", r.ID,
			"energy_full_uwh", r.EnergyFullUWh,
			"energy_now_uwh", r.EnergyNowUWh,
			"power_now_uw", r.PowerNowUW,
			"status", r.RawStatus)
	}
	agg, err := battery.Aggregate(readings)
	if err != nil {
		return Snapshot{}, fmt.Errorf("aggregate batteries: %w", err)
	}
	log.Info("sample", "batteries", len(readings), "percent", agg.Percent, "discharging", agg.AnyDischarging)
	return Snapshot{
		Percent:     agg.Percent,
		Discharging: agg.AnyDischarging,
		Multiple:    true,
		Details:     agg.Details,
	}, nil
}

// RunAll reads the battery once and checks every threshold independently.
// A read failure aborts the run; delivery failures are collected so the
// remaining thresholds are still checked.
func (m *Monitor) RunAll() ([]Result, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}

	thresholds := m.Thresholds
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}

	log := m.logger().With("topic", "threshold")
	results := make([]Result, 0, len(thresholds))
	var errs []error
	for _, th := range thresholds {
		req, err := m.Checker.Check(th, snap)
		if err != nil {
			return results, errors.Join(append(errs, err)...)
		}
		outcome, err := m.Delegate.Deliver(req)
		if err != nil {
			errs = append(errs, fmt.Errorf("threshold %d: %w", th, err))
		}
		log.Info("checked", "threshold", th, "active", req.Active, "outcome", outcome.String())
		results = append(results, Result{Request: req, Outcome: outcome})
	}
	return results, errors.Join(errs...)
}
