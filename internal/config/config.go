package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"
)

// DefaultPath is read when --config is not given; a missing file there means defaults.
const DefaultPath = "/etc/battery-alert/config.toml"

const (
	minThreshold            = 1
	maxThreshold            = 100
	maxExpireTimeoutSeconds = 3600
)

var (
	sources        = []string{"sysfs", "library"}
	stateBackends  = []string{"file", "sqlite"}
	notifyBackends = []string{"dbus", "command", "log"}
	urgencies      = []string{"low", "normal", "critical"}
)

type Config struct {
	Battery    BatteryConfig    `toml:"battery" json:"battery" yaml:"battery"`
	Thresholds ThresholdsConfig `toml:"thresholds" json:"thresholds" yaml:"thresholds"`
	State      StateConfig      `toml:"state" json:"state" yaml:"state"`
	Notify     NotifyConfig     `toml:"notify" json:"notify" yaml:"notify"`
}

type BatteryConfig struct {
	Source       string   `toml:"source" json:"source" yaml:"source"` // multi-battery reader: sysfs or library
	SysfsRoot    string   `toml:"sysfs_root" json:"sysfs_root" yaml:"sysfs_root"`
	NamePrefix   string   `toml:"name_prefix" json:"name_prefix" yaml:"name_prefix"`
	QueryCommand string   `toml:"query_command" json:"query_command" yaml:"query_command"`
	QueryArgs    []string `toml:"query_args" json:"query_args" yaml:"query_args"`
}

type ThresholdsConfig struct {
	Levels []int `toml:"levels" json:"levels" yaml:"levels"`
}

type StateConfig struct {
	Backend string `toml:"backend" json:"backend" yaml:"backend"`
	Dir     string `toml:"dir" json:"dir" yaml:"dir"`
	DBPath  string `toml:"db_path" json:"db_path" yaml:"db_path"`
}

type NotifyConfig struct {
	Backend              string `toml:"backend" json:"backend" yaml:"backend"`
	AppName              string `toml:"app_name" json:"app_name" yaml:"app_name"`
	Icon                 string `toml:"icon" json:"icon" yaml:"icon"`
	Urgency              string `toml:"urgency" json:"urgency" yaml:"urgency"`
	Command              string `toml:"command" json:"command" yaml:"command"`
	ExpireTimeoutSeconds int    `toml:"expire_timeout_seconds" json:"expire_timeout_seconds" yaml:"expire_timeout_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		Battery: BatteryConfig{
			Source:       "sysfs",
			SysfsRoot:    "/sys",
			NamePrefix:   "BAT",
			QueryCommand: "acpi",
			QueryArgs:    []string{"-b"},
		},
		Thresholds: ThresholdsConfig{
			Levels: []int{90, 50, 10},
		},
		State: StateConfig{
			Backend: "file",
			Dir:     "/tmp/linux-battery-info",
			DBPath:  "/tmp/linux-battery-info/state.db",
		},
		Notify: NotifyConfig{
			Backend:              "dbus",
			AppName:              "battery-alert",
			Icon:                 "battery-caution",
			Urgency:              "critical",
			Command:              "notify-send",
			ExpireTimeoutSeconds: 0,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read config file %s", path)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to decode config file %s", path)
	}

	return NormalizeAndValidate(cfg)
}

func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	sanitized := *cfg
	sanitized.Battery.QueryArgs = slices.Clone(cfg.Battery.QueryArgs)
	sanitized.Thresholds.Levels = slices.Clone(cfg.Thresholds.Levels)

	var err error
	sanitized.Battery.SysfsRoot, err = absPath("battery.sysfs_root", sanitized.Battery.SysfsRoot)
	if err != nil {
		return nil, err
	}
	sanitized.State.Dir, err = absPath("state.dir", sanitized.State.Dir)
	if err != nil {
		return nil, err
	}
	sanitized.State.DBPath, err = absPath("state.db_path", sanitized.State.DBPath)
	if err != nil {
		return nil, err
	}

	if err := validateOneOf("battery.source", sanitized.Battery.Source, sources); err != nil {
		return nil, err
	}
	if err := validateOneOf("state.backend", sanitized.State.Backend, stateBackends); err != nil {
		return nil, err
	}
	if err := validateOneOf("notify.backend", sanitized.Notify.Backend, notifyBackends); err != nil {
		return nil, err
	}
	if err := validateOneOf("notify.urgency", sanitized.Notify.Urgency, urgencies); err != nil {
		return nil, err
	}
	if err := validateNonEmpty("battery.name_prefix", sanitized.Battery.NamePrefix); err != nil {
		return nil, err
	}
	if err := validateNonEmpty("battery.query_command", sanitized.Battery.QueryCommand); err != nil {
		return nil, err
	}
	if sanitized.Notify.Backend == "command" {
		if err := validateNonEmpty("notify.command", sanitized.Notify.Command); err != nil {
			return nil, err
		}
	}
	if err := validateRange("notify.expire_timeout_seconds", sanitized.Notify.ExpireTimeoutSeconds, -1, maxExpireTimeoutSeconds); err != nil {
		return nil, err
	}

	if len(sanitized.Thresholds.Levels) == 0 {
		return nil, fmt.Errorf("thresholds.levels must not be empty")
	}
	seen := make(map[int]bool)
	for _, level := range sanitized.Thresholds.Levels {
		if err := validateRange("thresholds.levels", level, minThreshold, maxThreshold); err != nil {
			return nil, err
		}
		if seen[level] {
			return nil, fmt.Errorf("thresholds.levels contains %d twice", level)
		}
		seen[level] = true
	}

	return &sanitized, nil
}

// Save validates cfg and writes it to path as TOML. The file is replaced
// atomically.
func Save(path string, cfg *Config) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config path must not be empty")
	}

	valid, err := NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(valid); err != nil {
		return fmt.Errorf("encode config TOML: %w", err)
	}
	return replaceFile(path, buf.Bytes())
}

const fileHeader = "# battery-alert configuration. Written by \"battery-alert init-config\".\n\n"

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create config directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".battery-alert-*.toml")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create temp config file in %s", dir)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to write temp config file %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return pkgerrors.Wrapf(err, "failed to replace config file %s", path)
	}
	committed = true
	return nil
}

// absPath trims and cleans a configured path. Relative paths are rejected.
func absPath(key, value string) (string, error) {
	p := filepath.Clean(strings.TrimSpace(value))
	switch {
	case strings.TrimSpace(value) == "":
		return "", fmt.Errorf("%s must not be empty", key)
	case !filepath.IsAbs(p):
		return "", fmt.Errorf("%s must be an absolute path, got %q", key, value)
	}
	return p, nil
}

func validateRange(key string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s %d out of range [%d, %d]", key, v, lo, hi)
	}
	return nil
}

func validateOneOf(name, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), value)
	}
	return nil
}

func validateNonEmpty(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	return nil
}
