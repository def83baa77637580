// Package alert decides, per charge threshold, whether a low-battery popup is
// warranted and hands the decision to a Delegate that renders it.
package alert

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultThresholds are checked in this order on every run.
var DefaultThresholds = []int{90, 50, 10}

// Title is the popup title used for every request.
const Title = "Battery"

// Snapshot is the battery state a run compares against each threshold.
type Snapshot struct {
	Percent       float64
	Discharging   bool
	Multiple      bool
	TimeRemaining string   // single mode only
	Details       []string // multi mode only, one line per battery
}

// Message builds the popup body shown while the alarm is active.
func (s Snapshot) Message() string {
	if s.Multiple {
		return fmt.Sprintf("Batteries discharging. Currently at %.1f%%.\n\n%s", s.Percent, strings.Join(s.Details, "\n"))
	}
	msg := fmt.Sprintf("Battery discharging. Currently at %d%%.", int(s.Percent))
	if s.TimeRemaining != "" {
		msg += " Remaining time: " + s.TimeRemaining
	}
	return msg
}

// Request is what a threshold check hands to the Delegate.
type Request struct {
	Threshold int
	Title     string
	Message   string // empty when the alarm is inactive
	Active    bool
	EdgeOnly  bool   // notify only on the inactive -> active transition
	StatePath string // where the previous Active value is persisted
}

// Outcome reports what the Delegate did with a Request.
type Outcome int

const (
	Inactive Outcome = iota
	Notified
	AlreadyNotified
)

func (o Outcome) String() string {
	switch o {
	case Notified:
		return "notified"
	case AlreadyNotified:
		return "already notified"
	default:
		return "inactive"
	}
}

// Delegate renders a Request and persists its edge state.
type Delegate interface {
	Deliver(req Request) (Outcome, error)
}

// Checker builds threshold requests whose state files live under stateDir.
type Checker struct {
	stateDir string
}

// NewChecker creates a Checker for the given state directory.
func NewChecker(stateDir string) *Checker {
	return &Checker{stateDir: stateDir}
}

// StatePath returns the state file for a threshold, e.g. <dir>/50.txt.
func (c *Checker) StatePath(threshold int) string {
	return filepath.Join(c.stateDir, strconv.Itoa(threshold)+".txt")
}

// Check compares snap against threshold. The alarm is active when the charge
// is at or below the threshold while discharging.
func (c *Checker) Check(threshold int, snap Snapshot) (Request, error) {
	if err := os.MkdirAll(c.stateDir, 0o755); err != nil {
		return Request{}, fmt.Errorf("create state directory: %w", err)
	}

	req := Request{
		Threshold: threshold,
		Title:     Title,
		Active:    IsAlarm(threshold, snap.Percent, snap.Discharging),
		EdgeOnly:  true,
		StatePath: c.StatePath(threshold),
	}
	if req.Active {
		req.Message = snap.Message()
	}
	return req, nil
}

// IsAlarm reports whether percent is at or below threshold while discharging.
func IsAlarm(threshold int, percent float64, discharging bool) bool {
	return discharging && percent <= float64(threshold)
}
