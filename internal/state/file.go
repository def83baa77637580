package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps each key's edge state in its own marker file. Keys are
// file paths; Entries and Reset only look at *.txt files in dir.
type FileStore struct {
	dir string
}

// NewFileStore creates a store whose markers live under dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Previous reports the state recorded for key. A missing marker is false.
func (f *FileStore) Previous(key string) (bool, error) {
	data, err := os.ReadFile(key)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read state %s: %w", key, err)
	}
	return parseBool(string(data)), nil
}

// Record writes the state for key, creating the parent directory if needed.
func (f *FileStore) Record(key string, active bool) error {
	if err := os.MkdirAll(filepath.Dir(key), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	val := "False"
	if active {
		val = "True"
	}
	if err := os.WriteFile(key, []byte(val), 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", key, err)
	}
	return nil
}

// Entries returns every marker under dir keyed by path.
func (f *FileStore) Entries() (map[string]bool, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob state: %w", err)
	}
	entries := make(map[string]bool, len(matches))
	for _, path := range matches {
		active, err := f.Previous(path)
		if err != nil {
			return nil, err
		}
		entries[path] = active
	}
	return entries, nil
}

// Reset removes every marker under dir.
func (f *FileStore) Reset() error {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("glob state: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove state %s: %w", path, err)
		}
	}
	return nil
}

// DeleteOlderThan removes markers last written before the given time and
// returns how many were removed.
func (f *FileStore) DeleteOlderThan(before time.Time) (int64, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.txt"))
	if err != nil {
		return 0, fmt.Errorf("glob state: %w", err)
	}
	var total int64
	for _, path := range matches {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("stat state %s: %w", path, err)
		}
		if !info.ModTime().Before(before) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return total, fmt.Errorf("remove state %s: %w", path, err)
		}
		total++
	}
	return total, nil
}

// Close is a no-op; it lets FileStore and SQLiteStore share an interface.
func (f *FileStore) Close() error {
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
