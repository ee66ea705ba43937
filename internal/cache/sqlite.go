// SPDX-License-Identifier: MIT
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"notetrack/internal/log"
	"notetrack/internal/segment"
)

// SQLite persists frames in a single-table database file.
type SQLite struct {
	db *sql.DB
}

var _ Cache = (*SQLite)(nil)

// NewSQLite opens (or creates) the cache database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening cache database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Infof("Cache: using %s", path)
	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	const createPredictions = `
    CREATE TABLE IF NOT EXISTS predictions (
        key TEXT PRIMARY KEY,
        frames TEXT NOT NULL,
        frame_count INTEGER NOT NULL,
        created_at INTEGER NOT NULL
    );
    `
	if _, err := db.Exec(createPredictions); err != nil {
		return fmt.Errorf("error creating predictions table: %w", err)
	}
	return nil
}

func (c *SQLite) Lookup(key string) ([]segment.Frame, bool, error) {
	var blob string
	err := c.db.QueryRow("SELECT frames FROM predictions WHERE key = ?", key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading cached frames: %w", err)
	}

	var frames []segment.Frame
	if err := json.Unmarshal([]byte(blob), &frames); err != nil {
		return nil, false, fmt.Errorf("error decoding cached frames for %s: %w", key, err)
	}
	return frames, true, nil
}

func (c *SQLite) Store(key string, frames []segment.Frame) error {
	blob, err := json.Marshal(frames)
	if err != nil {
		return fmt.Errorf("error encoding frames: %w", err)
	}
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO predictions (key, frames, frame_count, created_at) VALUES (?, ?, ?, ?)",
		key, string(blob), len(frames), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("error storing frames: %w", err)
	}
	return nil
}

// Purge removes entries older than age and returns how many were dropped.
func (c *SQLite) Purge(age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).Unix()
	res, err := c.db.Exec("DELETE FROM predictions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("error purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return n, nil
}

func (c *SQLite) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
