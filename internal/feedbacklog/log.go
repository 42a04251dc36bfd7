package feedbacklog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"nextup/internal/services"
)

// FileName is the journal's file name inside the user directory.
const FileName = "feedback.db"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultListLimit        = 50
)

// Event is one journaled outcome.
type Event struct {
	ID      string    `json:"id"`
	User    string    `json:"user"`
	Kind    string    `json:"kind"`
	Key     string    `json:"key"`
	Title   string    `json:"title"`
	Outcome string    `json:"outcome"`
	At      time.Time `json:"at"`
}

// Log is the SQLite-backed journal.
type Log struct {
	db   *sql.DB
	path string
	now  func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open creates or opens the journal in dir.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "feedbacklog", "open", "create directory", err)
	}
	path := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "feedbacklog", "open", "open sqlite db", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrPersistence, "feedbacklog", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}
	l := &Log{
		db:      db,
		path:    path,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if err := l.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Path reports the database location.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Log) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback_events (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		item_key TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_events_user_kind ON feedback_events(user_name, kind);
	`
	if _, err := l.db.ExecContext(ctx, schema); err != nil {
		return services.Wrap(services.ErrPersistence, "feedbacklog", "migrate", "create schema", err)
	}
	return nil
}

func (l *Log) newID(at time.Time) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), l.entropy).String()
}

// Append journals ev. ID and At are filled when empty. The stored event is
// returned.
func (l *Log) Append(ctx context.Context, ev Event) (Event, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(ev.User) == "" || strings.TrimSpace(ev.Kind) == "" || strings.TrimSpace(ev.Key) == "" {
		return Event{}, services.Wrap(services.ErrValidation, "feedbacklog", "append", "user, kind and key are required", nil)
	}
	if ev.At.IsZero() {
		ev.At = l.now()
	}
	ev.At = ev.At.UTC()
	if ev.ID == "" {
		ev.ID = l.newID(ev.At)
	}
	err := retryOnBusy(ctx, func() error {
		_, execErr := l.db.ExecContext(ctx,
			`INSERT INTO feedback_events (id, user_name, kind, item_key, title, outcome, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.User, ev.Kind, ev.Key, ev.Title, ev.Outcome, ev.At.Format(time.RFC3339Nano),
		)
		return execErr
	})
	if err != nil {
		return Event{}, services.Wrap(services.ErrPersistence, "feedbacklog", "append", "insert event", err)
	}
	return ev, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	User  string
	Kind  string
	Limit int
}

// List returns the newest events first.
func (l *Log) List(ctx context.Context, filter Filter) ([]Event, error) {
	ctx = ensureContext(ctx)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT id, user_name, kind, item_key, title, outcome, recorded_at FROM feedback_events`
	var (
		clauses []string
		args    []any
	)
	if filter.User != "" {
		clauses = append(clauses, "user_name = ?")
		args = append(args, filter.User)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "feedbacklog", "list", "query events", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev         Event
			recordedAt string
		)
		if err := rows.Scan(&ev.ID, &ev.User, &ev.Kind, &ev.Key, &ev.Title, &ev.Outcome, &recordedAt); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "feedbacklog", "list", "scan event", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, recordedAt); parseErr == nil {
			ev.At = parsed
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "feedbacklog", "list", "iterate events", err)
	}
	return events, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
