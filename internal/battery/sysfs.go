package battery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SysfsReader reads per-battery energy files below <root>/class/power_supply.
type SysfsReader struct {
	root   string
	prefix string
}

// NewSysfsReader creates a reader rooted at root (normally "/sys") that
// discovers power supplies whose names start with prefix (normally "BAT").
func NewSysfsReader(root, prefix string) *SysfsReader {
	return &SysfsReader{root: root, prefix: prefix}
}

func (s *SysfsReader) supplyDir() string {
	return filepath.Join(s.root, "class/power_supply")
}

// Discover lists the battery ids under the power_supply directory, sorted.
func (s *SysfsReader) Discover() ([]string, error) {
	entries, err := os.ReadDir(s.supplyDir())
	if err != nil {
		return nil, fmt.Errorf("list power supplies: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), s.prefix) {
			ids = append(ids, e.Name())
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoBattery
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadMultiple reads the given batteries in order, or every discovered
// battery when ids is empty.
func (s *SysfsReader) ReadMultiple(ids []string) ([]Reading, error) {
	if len(ids) == 0 {
		var err error
		ids, err = s.Discover()
		if err != nil {
			return nil, err
		}
	}

	readings := make([]Reading, 0, len(ids))
	for _, id := range ids {
		r, err := s.read(id)
		if err != nil {
			return nil, fmt.Errorf("battery %s: %w", id, err)
		}
		readings = append(readings, *r)
	}
	return readings, nil
}

func (s *SysfsReader) read(id string) (*Reading, error) {
	dir := filepath.Join(s.supplyDir(), id)

	full, err := readIntFile(filepath.Join(dir, "energy_full"))
	if err != nil {
		// Some firmware only exposes the design capacity.
		full, err = readIntFile(filepath.Join(dir, "energy_full_design"))
		if err != nil {
			return nil, fmt.Errorf("read energy_full_design: %w", err)
		}
	}
	now, err := readIntFile(filepath.Join(dir, "energy_now"))
	if err != nil {
		return nil, fmt.Errorf("read energy_now: %w", err)
	}
	power, err := readIntFile(filepath.Join(dir, "power_now"))
	if err != nil {
		return nil, fmt.Errorf("read power_now: %w", err)
	}
	status, err := readStringFile(filepath.Join(dir, "status"))
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	return &Reading{
		ID:            id,
		EnergyFullUWh: full,
		EnergyNowUWh:  now,
		PowerNowUW:    power,
		Status:        ParseStatus(status),
		RawStatus:     status,
	}, nil
}

func readIntFile(path string) (int64, error) {
	s, err := readStringFile(path)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, fmt.Errorf("%s is empty", filepath.Base(path))
	}
	return strconv.ParseInt(s, 10, 64)
}

func readStringFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
