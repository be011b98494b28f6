package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bundlescope/bundlescope/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS bundle_analyses (
	fingerprint TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	saved_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saved_at ON bundle_analyses(saved_at DESC);
`

type Store struct {
	conn *sql.DB
}

// New creates a new cache store and initializes the schema
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Enable foreign keys and WAL mode for better performance
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save persists an analysis entry, overwriting any previous entry for the
// same fingerprint
func (s *Store) Save(entry *models.StoredAnalysis) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		INSERT INTO bundle_analyses (fingerprint, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint)
		DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`

	if _, err := s.conn.Exec(query, entry.Fingerprint, string(payload), entry.SavedAt); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// Load retrieves the entry for a fingerprint. A missing row, an entry that
// fails to decode, or an entry whose payload carries a different fingerprint
// all count as cache misses and return (nil, nil).
func (s *Store) Load(fingerprint string) (*models.StoredAnalysis, error) {
	var payload string

	err := s.conn.QueryRow(
		"SELECT payload FROM bundle_analyses WHERE fingerprint = ?", fingerprint,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}

	var stored models.StoredAnalysis
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, nil
	}
	if stored.Fingerprint != fingerprint {
		return nil, nil
	}

	return &stored, nil
}

// Clear deletes the entry for a fingerprint; deleting a missing entry is not
// an error
func (s *Store) Clear(fingerprint string) error {
	if _, err := s.conn.Exec("DELETE FROM bundle_analyses WHERE fingerprint = ?", fingerprint); err != nil {
		return fmt.Errorf("failed to clear analysis: %w", err)
	}
	return nil
}

// List retrieves stored entries, most recent first
func (s *Store) List(limit int) ([]models.StoredAnalysis, error) {
	rows, err := s.conn.Query(
		"SELECT payload FROM bundle_analyses ORDER BY saved_at DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var entries []models.StoredAnalysis
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var stored models.StoredAnalysis
		if err := json.Unmarshal([]byte(payload), &stored); err != nil {
			continue
		}
		entries = append(entries, stored)
	}

	return entries, rows.Err()
}

// Count returns the total number of cached analyses
func (s *Store) Count() (int, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM bundle_analyses").Scan(&count)
	return count, err
}
