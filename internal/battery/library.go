package battery

import (
	"fmt"

	"github.com/distatus/battery"
)

// LibraryReader reads batteries through github.com/distatus/battery, for
// systems where the power_supply class lacks energy_* files.
type LibraryReader struct {
	getAll func() ([]*battery.Battery, error)
}

// NewLibraryReader creates a LibraryReader backed by battery.GetAll.
func NewLibraryReader() *LibraryReader {
	return &LibraryReader{getAll: battery.GetAll}
}

// ReadMultiple returns the batteries the library reports, named BAT<index>.
// When ids is non-empty only those batteries are returned, in ids order.
func (l *LibraryReader) ReadMultiple(ids []string) ([]Reading, error) {
	bats, err := l.getAll()
	// Partial errors are reported per battery; skip those and keep the rest.
	errs, partial := err.(battery.Errors)
	if err != nil && !partial {
		return nil, fmt.Errorf("get batteries: %w", err)
	}

	byID := make(map[string]Reading)
	var order []string
	for i, bat := range bats {
		if partial && i < len(errs) && errs[i] != nil {
			continue
		}
		if bat == nil {
			continue
		}
		r := fromLibrary(fmt.Sprintf("BAT%d", i), bat)
		byID[r.ID] = r
		order = append(order, r.ID)
	}
	if len(order) == 0 {
		return nil, ErrNoBattery
	}

	if len(ids) == 0 {
		ids = order
	}
	readings := make([]Reading, 0, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("battery %s: %w", id, ErrNoBattery)
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// fromLibrary converts library values (mWh, mW) to sysfs units (µWh, µW).
func fromLibrary(id string, bat *battery.Battery) Reading {
	full := bat.Full
	if full == 0 {
		full = bat.Design
	}
	r := Reading{
		ID:            id,
		EnergyFullUWh: int64(full * 1000),
		EnergyNowUWh:  int64(bat.Current * 1000),
		PowerNowUW:    int64(bat.ChargeRate * 1000),
	}
	switch bat.State {
	case battery.Charging:
		r.Status = StatusCharging
	case battery.Discharging:
		r.Status = StatusDischarging
	default:
		r.Status = StatusOther
	}
	r.RawStatus = bat.State.String()
	return r
}
