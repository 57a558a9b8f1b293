// Package journal records stream events in SQLite so sessions can be inspected and replayed.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dexwatch/internal/livesync"
	"github.com/desertthunder/dexwatch/internal/shared"
)

// Entry is one recorded event.
type Entry struct {
	ID         string
	Seq        int
	SessionID  string
	Event      livesync.Event
	ReceivedAt time.Time
}

// Session is one subscription and its event count.
type Session struct {
	ID        string
	Endpoint  string
	StartedAt time.Time
	Events    int
}

// Journal implements [livesync.Recorder] on top of the journal database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

var _ livesync.Recorder = (*Journal)(nil)

// New creates a Journal using db, which must already be migrated.
func New(db *sql.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// Open opens and migrates the journal database described by cfg.
func Open(cfg shared.JournalConfig) (*Journal, error) {
	if !cfg.Enabled {
		return nil, shared.ErrJournalDisabled
	}
	db, err := shared.OpenJournalDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends ev to the session, creating the session on its first event.
func (j *Journal) Record(ctx context.Context, sessionID, endpoint string, ev livesync.Event) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", shared.ErrInvalidInput)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := j.now().UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, endpoint, started_at) VALUES (?, ?, ?)`,
		sessionID, endpoint, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE session_id = ?`, sessionID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to get sequence value: %w", err)
	}

	query := `
		INSERT INTO events (id, seq, session_id, event_id, kind, data, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, query, shared.GenerateID(), seq, sessionID, ev.ID, ev.Kind, ev.Data, now); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event: %w", err)
	}
	return nil
}

// Sessions lists recorded sessions, newest first.
func (j *Journal) Sessions(ctx context.Context) ([]Session, error) {
	query := `
		SELECT s.id, s.endpoint, s.started_at, COUNT(e.id)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.id
	`

	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Endpoint, &s.StartedAt, &s.Events); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// List returns up to limit events of a session in receive order. A limit of 0 returns all.
func (j *Journal) List(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if err := j.ensureSession(ctx, sessionID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, seq, session_id, event_id, kind, data, received_at
		FROM events
		WHERE session_id = ?
		ORDER BY seq
	`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Replay calls fn with every event of a session in receive order and stops at the first error.
func (j *Journal) Replay(ctx context.Context, sessionID string, fn func(livesync.Event) error) (int, error) {
	entries, err := j.List(ctx, sessionID, 0)
	if err != nil {
		return 0, err
	}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := fn(entry.Event); err != nil {
			return i, fmt.Errorf("event %d: %w", entry.Seq, err)
		}
	}
	return len(entries), nil
}

func (j *Journal) ensureSession(ctx context.Context, sessionID string) error {
	var id string
	err := j.db.QueryRowContext(ctx, `SELECT id FROM sessions WHERE id = ?`, sessionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to query session: %w", err)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	err := rows.Scan(&e.ID, &e.Seq, &e.SessionID, &e.Event.ID, &e.Event.Kind, &e.Event.Data, &e.ReceivedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to scan event: %w", err)
	}
	return e, nil
}
