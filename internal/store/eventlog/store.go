package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// defaultRetention caps the number of rows kept; older rows are trimmed on
// insert so the log cannot grow without bound.
const defaultRetention = 5000

// EventLog is a bounded on-disk log of daemon events. It backs the
// `logs(n)` control surface and survives restarts.
type EventLog struct {
	mu        sync.Mutex
	db        *sql.DB
	path      string
	retention int
}

// Entry is one logged daemon event.
type Entry struct {
	ID        int64  `json:"id"`
	TS        int64  `json:"ts"`
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

func New(path string) (*EventLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("event log path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &EventLog{db: db, path: path, retention: defaultRetention}, nil
}

func ensureSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS daemon_events (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    ts        INTEGER NOT NULL,
    level     TEXT NOT NULL,
    component TEXT NOT NULL,
    message   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_daemon_events_ts ON daemon_events(ts);`
	_, err := db.Exec(ddl)
	return err
}

// Append records one event and trims rows beyond the retention cap.
func (l *EventLog) Append(ctx context.Context, level, component, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return fmt.Errorf("event log is closed")
	}
	if _, err := l.db.ExecContext(ctx,
		"INSERT INTO daemon_events (ts, level, component, message) VALUES (?, ?, ?, ?)",
		time.Now().Unix(), level, component, message); err != nil {
		return err
	}
	_, err := l.db.ExecContext(ctx,
		"DELETE FROM daemon_events WHERE id <= (SELECT MAX(id) FROM daemon_events) - ?",
		l.retention)
	return err
}

// Recent returns the newest n entries, newest first.
func (l *EventLog) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil, fmt.Errorf("event log is closed")
	}
	rows, err := l.db.QueryContext(ctx,
		"SELECT id, ts, level, component, message FROM daemon_events ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TS, &e.Level, &e.Component, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
