package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS edge_state (
	key TEXT PRIMARY KEY,
	active INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteStore keeps edge state in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Previous reports the state recorded for key. An unknown key is false.
func (s *SQLiteStore) Previous(key string) (bool, error) {
	var active int
	err := s.db.QueryRow("SELECT active FROM edge_state WHERE key = ?", key).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query state %s: %w", key, err)
	}
	return active != 0, nil
}

// Record upserts the state for key.
func (s *SQLiteStore) Record(key string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	_, err := s.db.Exec(
		"INSERT INTO edge_state (key, active, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET active = excluded.active, updated_at = excluded.updated_at",
		key, v, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record state %s: %w", key, err)
	}
	return nil
}

// Entries returns every recorded key.
func (s *SQLiteStore) Entries() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT key, active FROM edge_state ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make(map[string]bool)
	for rows.Next() {
		var key string
		var active int
		if err := rows.Scan(&key, &active); err != nil {
			return nil, err
		}
		entries[key] = active != 0
	}
	return entries, rows.Err()
}

// Reset deletes all recorded state.
func (s *SQLiteStore) Reset() error {
	if _, err := s.db.Exec("DELETE FROM edge_state"); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	return nil
}

// DeleteOlderThan deletes entries last updated before the given time.
// Returns the number of deleted rows.
func (s *SQLiteStore) DeleteOlderThan(before time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM edge_state WHERE updated_at < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete from edge_state: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
