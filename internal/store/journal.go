package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"handyman/internal/model"

	_ "modernc.org/sqlite"
)

const (
	JournalOK     = "ok"
	JournalFailed = "failed"
)

// Journal records every save attempt in SQLite, successful or not, so a
// batch lost to a failed write can still be inspected.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

type JournalEntry struct {
	BatchID string      `json:"batchId"`
	Catalog string      `json:"catalog"`
	SavedAt time.Time   `json:"savedAt"`
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Changes int         `json:"changes"`
	Batch   model.Batch `json:"batch"`
}

// OpenJournal opens (creating if needed) the journal at path. ":memory:"
// gives a private in-memory journal.
func OpenJournal(ctx context.Context, path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal: path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateJournal(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running journal migrations: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func migrateJournal(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			batch_id TEXT PRIMARY KEY,
			catalog TEXT NOT NULL,
			saved_at_unixms INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			changes INTEGER NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_saved_at ON saves(saved_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores one save attempt. A retried batch id overwrites the earlier
// attempt.
func (j *Journal) Record(ctx context.Context, catalog string, b model.Batch, saveErr error) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}
	status, msg := JournalOK, sql.NullString{}
	if saveErr != nil {
		status = JournalFailed
		msg = sql.NullString{String: saveErr.Error(), Valid: true}
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO saves(batch_id, catalog, saved_at_unixms, status, error, changes, payload_json)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		b.ID, catalog, j.now().UnixMilli(), status, msg, len(b.Changes), string(payload),
	)
	if err != nil {
		return fmt.Errorf("recording save %s: %w", b.ID, err)
	}
	return nil
}

// List returns the most recent saves first. limit <= 0 means all.
func (j *Journal) List(ctx context.Context, limit int) ([]JournalEntry, error) {
	q := `SELECT batch_id, catalog, saved_at_unixms, status, error, changes, payload_json
		FROM saves ORDER BY saved_at_unixms DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	out := []JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Get(ctx context.Context, batchID string) (JournalEntry, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT batch_id, catalog, saved_at_unixms, status, error, changes, payload_json
		 FROM saves WHERE batch_id = ?`, strings.TrimSpace(batchID))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return JournalEntry{}, fmt.Errorf("save %s: %w", batchID, os.ErrNotExist)
	}
	return e, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (JournalEntry, error) {
	var (
		e       JournalEntry
		ms      int64
		errText sql.NullString
		payload string
	)
	if err := r.Scan(&e.BatchID, &e.Catalog, &ms, &e.Status, &errText, &e.Changes, &payload); err != nil {
		return e, err
	}
	e.SavedAt = time.UnixMilli(ms).UTC()
	e.Error = errText.String
	if err := json.Unmarshal([]byte(payload), &e.Batch); err != nil {
		return e, fmt.Errorf("decoding save %s: %w", e.BatchID, err)
	}
	return e, nil
}
