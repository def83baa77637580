package battery

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBattery is returned when discovery finds no matching power supply.
	ErrNoBattery = errors.New("no battery found")
	// ErrNoCapacity is returned when the summed full energy is zero.
	ErrNoCapacity = errors.New("total battery capacity is zero")
	// ErrUnexpectedOutput is returned when the query command prints something we can't parse.
	ErrUnexpectedOutput = errors.New("unexpected battery query output")
)

// Status is the charge state reported for a single battery.
type Status int

const (
	StatusOther Status = iota
	StatusCharging
	StatusDischarging
)

// ParseStatus maps a sysfs status word to a Status. Anything other than
// "Charging" or "Discharging" (Full, Not charging, Unknown) is StatusOther.
func ParseStatus(s string) Status {
	switch s {
	case "Charging":
		return StatusCharging
	case "Discharging":
		return StatusDischarging
	default:
		return StatusOther
	}
}

func (s Status) String() string {
	switch s {
	case StatusCharging:
		return "Charging"
	case StatusDischarging:
		return "Discharging"
	default:
		return "Other"
	}
}

// Reading holds one battery's energy values from /sys/class/power_supply/<id>.
type Reading struct {
	ID            string `json:"id" yaml:"id"`
	EnergyFullUWh int64  `json:"energy_full_uwh" yaml:"energy_full_uwh"`
	EnergyNowUWh  int64  `json:"energy_now_uwh" yaml:"energy_now_uwh"`
	PowerNowUW    int64  `json:"power_now_uw" yaml:"power_now_uw"`
	Status        Status `json:"-" yaml:"-"`
	RawStatus     string `json:"status" yaml:"status"` // status word as reported, e.g. "Not charging"
}

// Summary renders the reading for the multi-battery popup body, e.g.
// "Battery: BAT0. Energy: 25.0/50.0 (50.0%) + Status: Discharging.".
func (r Reading) Summary() string {
	var pct float64
	if r.EnergyFullUWh > 0 {
		pct = round1(float64(r.EnergyNowUWh) / float64(r.EnergyFullUWh) * 100)
	}
	status := r.RawStatus
	if status == "" {
		status = r.Status.String()
	}
	return fmt.Sprintf("Battery: %s. Energy: %.1f/%.1f (%.1f%%) + Status: %s.",
		r.ID,
		round1(float64(r.EnergyNowUWh)/1e6),
		round1(float64(r.EnergyFullUWh)/1e6),
		pct,
		status)
}

// SingleReading is the result of querying the acpi tool.
type SingleReading struct {
	Charging      bool   `json:"charging" yaml:"charging"`
	Percent       int    `json:"percent" yaml:"percent"`
	TimeRemaining string `json:"time_remaining,omitempty" yaml:"time_remaining,omitempty"` // empty when acpi reports none
}

// AggregateStatus is the combined state of several batteries.
type AggregateStatus struct {
	Percent        float64  `json:"percent" yaml:"percent"`
	AnyDischarging bool     `json:"any_discharging" yaml:"any_discharging"`
	Details        []string `json:"details" yaml:"details"`
}
