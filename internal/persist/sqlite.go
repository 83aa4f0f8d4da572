package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Schema for the snapshots table. The table holds exactly one row; each
// save overwrites it inside a transaction.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
`

// SQLiteStore keeps the snapshot in a single-row sqlite table. It trades
// the file store's plain-text snapshot for crash-safe writes and a queryable
// save history via saved_at.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db %s: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load decodes the stored snapshot row. An empty table or undecodable
// payload maps to ErrNotFound.
func (s *SQLiteStore) Load() (State, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM snapshots WHERE id = 1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return State{}, ErrNotFound
		}
		return State{}, fmt.Errorf("query snapshot: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return State{}, fmt.Errorf("decode snapshot payload (%v): %w", err, ErrNotFound)
	}
	if state.Version != CurrentVersion {
		return State{}, fmt.Errorf("snapshot has version %d, want %d: %w", state.Version, CurrentVersion, ErrNotFound)
	}
	return state, nil
}

// Save overwrites the snapshot row transactionally.
func (s *SQLiteStore) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO snapshots (id, payload, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		string(data), state.SavedAt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
