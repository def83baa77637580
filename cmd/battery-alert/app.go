package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
	"github.com/cptspacemanspiff/battery-alert/internal/battery"
	"github.com/cptspacemanspiff/battery-alert/internal/config"
	"github.com/cptspacemanspiff/battery-alert/internal/notify"
	"github.com/cptspacemanspiff/battery-alert/internal/state"
)

// options holds the values of the persistent command-line flags.
type options struct {
	configPath string
	verbose    bool
	logTopics  string
	multiple   bool
	batteries  []string
}

type stateStore interface {
	Previous(key string) (bool, error)
	Record(key string, active bool) error
	Entries() (map[string]bool, error)
	Reset() error
	DeleteOlderThan(before time.Time) (int64, error)
	Close() error
}

// app is everything one invocation needs, wired from config and flags.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   stateStore
	monitor *alert.Monitor
	closers []func() error
}

// loadConfig reads the config file. A missing file at the default path
// means built-in defaults; a missing file given explicitly is an error.
func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.NormalizeAndValidate(config.DefaultConfig())
		}
		return nil, err
	}
	return cfg, nil
}

// splitBatteries flattens repeated and comma-separated --batteries values
// plus trailing positional names into one ordered, de-duplicated list.
func splitBatteries(flagValues, positional []string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, v := range append(append([]string{}, flagValues...), positional...) {
		for _, id := range strings.Split(v, ",") {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func openStore(cfg *config.Config) (stateStore, error) {
	switch cfg.State.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.State.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create state db directory: %w", err)
		}
		return state.OpenSQLite(cfg.State.DBPath)
	default:
		return state.NewFileStore(cfg.State.Dir), nil
	}
}

func newPopup(cfg *config.Config, logger *slog.Logger) (notify.Popup, func() error) {
	n := cfg.Notify
	switch n.Backend {
	case "command":
		return notify.NewCommandPopup(n.Command, n.AppName, n.Icon, n.Urgency), nil
	case "log":
		return notify.NewLogPopup(logger.With("topic", "notify")), nil
	default:
		p := notify.NewDBusPopup(n.AppName, n.Icon, n.Urgency, time.Duration(n.ExpireTimeoutSeconds)*time.Second)
		return p, p.Close
	}
}

func newMultiReader(cfg *config.Config) alert.MultiReader {
	if cfg.Battery.Source == "library" {
		return battery.NewLibraryReader()
	}
	return battery.NewSysfsReader(cfg.Battery.SysfsRoot, cfg.Battery.NamePrefix)
}

// newApp wires readers, the state store, the popup backend and the monitor.
func newApp(opts *options, positional []string, logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger, store: store, closers: []func() error{store.Close}}

	popup, closePopup := newPopup(cfg, logger)
	if closePopup != nil {
		a.closers = append(a.closers, closePopup)
	}

	a.monitor = &alert.Monitor{
		Single:     battery.NewQueryReader(cfg.Battery.QueryCommand, cfg.Battery.QueryArgs, nil),
		Multi:      newMultiReader(cfg),
		Multiple:   opts.multiple,
		Batteries:  splitBatteries(opts.batteries, positional),
		Thresholds: cfg.Thresholds.Levels,
		Checker:    alert.NewChecker(cfg.State.Dir),
		Delegate:   notify.NewEdgeDelegate(store, popup),
		Log:        logger,
	}
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
