package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docketvoice/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS progress (
	session_key TEXT PRIMARY KEY,
	snapshot_id TEXT NOT NULL,
	step        INTEGER NOT NULL,
	data        TEXT NOT NULL,
	saved_at    TEXT NOT NULL
)`

// ProgressStore keeps one interview snapshot per session key in SQLite.
type ProgressStore struct {
	db *sql.DB
}

// OpenProgressStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway store.
func OpenProgressStore(path string) (*ProgressStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection keeps :memory: databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &ProgressStore{db: db}, nil
}

func (s *ProgressStore) Close() error {
	return s.db.Close()
}

func (s *ProgressStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress (session_key, snapshot_id, step, data, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			step        = excluded.step,
			data        = excluded.data,
			saved_at    = excluded.saved_at`,
		snap.SessionKey, snap.ID, snap.Step, string(data), snap.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load returns (nil, nil) when nothing is saved under key.
func (s *ProgressStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	var (
		id      string
		step    int
		data    string
		savedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot_id, step, data, saved_at FROM progress WHERE session_key = ?`, key,
	).Scan(&id, &step, &data, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	snap := domain.Snapshot{ID: id, SessionKey: key, Step: step}
	if err := json.Unmarshal([]byte(data), &snap.Data); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return nil, fmt.Errorf("parsing saved_at: %w", err)
	}
	return &snap, nil
}

func (s *ProgressStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE session_key = ?`, key); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
