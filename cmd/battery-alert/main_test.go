package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type testEnv struct {
	sysfs      string
	stateDir   string
	configPath string
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func (e *testEnv) battery(t *testing.T, id, full, now, status string) {
	t.Helper()

	dir := filepath.Join(e.sysfs, "class/power_supply", id)
	writeTestFile(t, filepath.Join(dir, "energy_full"), full+"\n")
	writeTestFile(t, filepath.Join(dir, "energy_now"), now+"\n")
	writeTestFile(t, filepath.Join(dir, "power_now"), "7000000\n")
	writeTestFile(t, filepath.Join(dir, "status"), status+"\n")
}

func newTestEnv(t *testing.T, backend string) *testEnv {
	t.Helper()

	root := t.TempDir()
	e := &testEnv{
		sysfs:      filepath.Join(root, "sys"),
		stateDir:   filepath.Join(root, "state"),
		configPath: filepath.Join(root, "config.toml"),
	}
	writeTestFile(t, e.configPath, `
[battery]
sysfs_root = "`+e.sysfs+`"

[state]
backend = "`+backend+`"
dir = "`+e.stateDir+`"
db_path = "`+filepath.Join(e.stateDir, "state.db")+`"

[notify]
backend = "log"
`)
	return e
}

func runCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func readMarker(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestSplitBatteries(t *testing.T) {
	got := splitBatteries([]string{"BAT0,BAT1", "BAT0"}, []string{"BAT2", " BAT1 "})
	want := []string{"BAT0", "BAT1", "BAT2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitBatteries() = %v, want %v", got, want)
	}
	if got := splitBatteries(nil, nil); len(got) != 0 {
		t.Fatalf("splitBatteries(nil, nil) = %v, want empty", got)
	}
}

func TestCheck_MultipleBatteriesNotifiesOnce(t *testing.T) {
	e := newTestEnv(t, "file")
	e.battery(t, "BAT0", "50000000", "10000000", "Discharging")
	e.battery(t, "BAT1", "50000000", "20000000", "Unknown")

	_, stderr, err := runCommand(t, "--config", e.configPath, "--batteries", "BAT0", "BAT1")
	if err != nil {
		t.Fatalf("first run error = %v\n%s", err, stderr)
	}
	if n := strings.Count(stderr, "msg=Battery"); n != 2 {
		t.Fatalf("first run popups = %d, want 2 (90%% and 50%% at 30.0%%)\n%s", n, stderr)
	}
	if !strings.Contains(stderr, "Currently at 30.0%") {
		t.Fatalf("popup body missing aggregate percent:\n%s", stderr)
	}

	for th, want := range map[string]string{"90": "True", "50": "True", "10": "False"} {
		if got := readMarker(t, filepath.Join(e.stateDir, th+".txt")); got != want {
			t.Fatalf("%s.txt = %q, want %q", th, got, want)
		}
	}

	_, stderr, err = runCommand(t, "check", "--config", e.configPath, "--multiple")
	if err != nil {
		t.Fatalf("second run error = %v\n%s", err, stderr)
	}
	if strings.Contains(stderr, "msg=Battery") {
		t.Fatalf("second run notified again:\n%s", stderr)
	}
}

func TestCheck_SQLiteBackend(t *testing.T) {
	e := newTestEnv(t, "sqlite")
	e.battery(t, "BAT0", "50000000", "4000000", "Discharging")

	_, stderr, err := runCommand(t, "--config", e.configPath, "--multiple")
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, stderr)
	}
	if n := strings.Count(stderr, "msg=Battery"); n != 3 {
		t.Fatalf("popups = %d, want 3 at 8.0%%\n%s", n, stderr)
	}
	if _, err := os.Stat(filepath.Join(e.stateDir, "state.db")); err != nil {
		t.Fatalf("state.db not created: %v", err)
	}

	_, stderr, err = runCommand(t, "--config", e.configPath, "--multiple")
	if err != nil {
		t.Fatalf("second run error = %v\n%s", err, stderr)
	}
	if strings.Contains(stderr, "msg=Battery") {
		t.Fatalf("second run notified again:\n%s", stderr)
	}
}

func TestCheck_ZeroCapacityFails(t *testing.T) {
	e := newTestEnv(t, "file")
	e.battery(t, "BAT0", "0", "0", "Discharging")

	_, _, err := runCommand(t, "--config", e.configPath, "--multiple")
	if err == nil {
		t.Fatal("run error = nil, want zero capacity error")
	}
}

func TestCheck_PositionalWithoutBatteriesFlag(t *testing.T) {
	e := newTestEnv(t, "file")
	_, _, err := runCommand(t, "check", "--config", e.configPath, "BAT0")
	if err == nil || !strings.Contains(err.Error(), "must follow --batteries") {
		t.Fatalf("run error = %v, want positional argument error", err)
	}
}

func TestCheck_MissingExplicitConfig(t *testing.T) {
	_, _, err := runCommand(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "--multiple")
	if err == nil {
		t.Fatal("run error = nil, want missing config error")
	}
}

func TestStatus_JSONAndYAML(t *testing.T) {
	e := newTestEnv(t, "file")
	e.battery(t, "BAT0", "50000000", "25000000", "Discharging")

	stdout, stderr, err := runCommand(t, "status", "--config", e.configPath, "--multiple", "--format", "json")
	if err != nil {
		t.Fatalf("status error = %v\n%s", err, stderr)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode status JSON: %v\n%s", err, stdout)
	}
	if report.Mode != "multiple" || report.Percent != 50.0 || !report.Discharging {
		t.Fatalf("status = %#v, want multiple 50.0%% discharging", report)
	}
	alarms := map[int]bool{}
	for _, th := range report.Thresholds {
		alarms[th.Threshold] = th.Alarm
		if th.Notified {
			t.Fatalf("threshold %d notified before any check", th.Threshold)
		}
	}
	if !alarms[90] || !alarms[50] || alarms[10] {
		t.Fatalf("alarms = %v, want 90 and 50 only", alarms)
	}
	if _, err := os.Stat(filepath.Join(e.stateDir, "50.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("status wrote state: %v", err)
	}

	stdout, _, err = runCommand(t, "status", "--config", e.configPath, "--multiple", "--format", "yaml")
	if err != nil {
		t.Fatalf("status yaml error = %v", err)
	}
	var fromYAML statusReport
	if err := yaml.Unmarshal([]byte(stdout), &fromYAML); err != nil {
		t.Fatalf("decode status YAML: %v\n%s", err, stdout)
	}
	if fromYAML.Percent != 50.0 || len(fromYAML.Thresholds) != 3 {
		t.Fatalf("yaml status = %#v", fromYAML)
	}

	stdout, _, err = runCommand(t, "status", "--config", e.configPath, "--multiple")
	if err != nil {
		t.Fatalf("status text error = %v", err)
	}
	if !strings.Contains(stdout, "Thresholds:") || !strings.Contains(stdout, "Battery: BAT0.") {
		t.Fatalf("status text = %q", stdout)
	}
}

func TestStatus_UnknownFormat(t *testing.T) {
	e := newTestEnv(t, "file")
	e.battery(t, "BAT0", "50000000", "25000000", "Discharging")

	_, _, err := runCommand(t, "status", "--config", e.configPath, "--multiple", "--format", "xml")
	if err == nil {
		t.Fatal("status error = nil, want unknown format error")
	}
}

func TestReset_ClearsState(t *testing.T) {
	e := newTestEnv(t, "file")
	e.battery(t, "BAT0", "50000000", "1000000", "Discharging")

	if _, stderr, err := runCommand(t, "--config", e.configPath, "--multiple"); err != nil {
		t.Fatalf("check error = %v\n%s", err, stderr)
	}
	if _, _, err := runCommand(t, "reset", "--config", e.configPath); err != nil {
		t.Fatalf("reset error = %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(e.stateDir, "*.txt"))
	if len(matches) != 0 {
		t.Fatalf("markers after reset = %v, want none", matches)
	}

	_, stderr, err := runCommand(t, "--config", e.configPath, "--multiple")
	if err != nil {
		t.Fatalf("check after reset error = %v", err)
	}
	if n := strings.Count(stderr, "msg=Battery"); n != 3 {
		t.Fatalf("popups after reset = %d, want 3\n%s", n, stderr)
	}
}

func TestInitConfig(t *testing.T) {
	e := newTestEnv(t, "file")
	out := filepath.Join(t.TempDir(), "etc", "battery-alert.toml")

	if _, _, err := runCommand(t, "init-config", "--config", e.configPath, out); err != nil {
		t.Fatalf("init-config error = %v", err)
	}
	cfg, err := loadConfig(out)
	if err != nil {
		t.Fatalf("loadConfig(written) error = %v", err)
	}
	if cfg.Battery.SysfsRoot != e.sysfs || cfg.Notify.Backend != "log" {
		t.Fatalf("written config = %#v, want values from --config", cfg)
	}

	_, _, err = runCommand(t, "init-config", out)
	if !errors.Is(err, errConfigExists) {
		t.Fatalf("second init-config error = %v, want errConfigExists", err)
	}
	if _, _, err := runCommand(t, "init-config", "--force", out); err != nil {
		t.Fatalf("init-config --force error = %v", err)
	}
}

func TestReset_OlderThanKeepsFreshState(t *testing.T) {
	e := newTestEnv(t, "file")
	e.battery(t, "BAT0", "50000000", "1000000", "Discharging")

	if _, stderr, err := runCommand(t, "--config", e.configPath, "--multiple"); err != nil {
		t.Fatalf("check error = %v\n%s", err, stderr)
	}
	_, stderr, err := runCommand(t, "reset", "--config", e.configPath, "--older-than", "1h")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(stderr, "deleted=0") {
		t.Fatalf("reset log = %q, want deleted=0", stderr)
	}
	if got := readMarker(t, filepath.Join(e.stateDir, "10.txt")); got != "True" {
		t.Fatalf("10.txt = %q, want True", got)
	}
}
