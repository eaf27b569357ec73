package databases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// register the "sqlite" driver
	_ "modernc.org/sqlite"

	"github.com/linesmerrill/ai-court-api/court"
)

const trialSessionsSchema = `CREATE TABLE IF NOT EXISTS trial_sessions (
	id            TEXT PRIMARY KEY,
	current_stage TEXT NOT NULL,
	payload       TEXT NOT NULL,
	updated_at    TIMESTAMP NOT NULL
)`

// SQLiteStore persists trial sessions in a local SQLite file. Each session is
// one row holding the JSON encoded record.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, trialSessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces the row for rec
func (s *SQLiteStore) Save(ctx context.Context, rec court.SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode trial session %s: %w", rec.SessionID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trial_sessions (id, current_stage, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_stage = excluded.current_stage,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		rec.SessionID, rec.CurrentStage.String(), string(payload), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save trial session %s: %w", rec.SessionID, err)
	}
	return nil
}

// Load returns court.ErrSessionNotFound when no row has the id
func (s *SQLiteStore) Load(ctx context.Context, id string) (*court.SessionRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM trial_sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, court.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load trial session %s: %w", id, err)
	}

	rec := &court.SessionRecord{}
	if err := json.Unmarshal([]byte(payload), rec); err != nil {
		return nil, fmt.Errorf("decode trial session %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes the row for id
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trial_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete trial session %s: %w", id, err)
	}
	return nil
}

// Count returns the number of stored sessions
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trial_sessions`).Scan(&n)
	return n, err
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
