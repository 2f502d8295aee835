package persistence

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/nationsim/internal/engine"
)

// Archive wraps a SQLite database holding the append-only event history and
// a small metadata table. Live subsystem state lives in the file stores; the
// archive only accumulates what already happened.
type Archive struct {
	conn *sqlx.DB
}

// OpenArchive opens or creates the archive database at the given path.
func OpenArchive(path string) (*Archive, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		nation TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
	CREATE INDEX IF NOT EXISTS idx_events_nation ON events(nation);
	`
	_, err := a.conn.Exec(schema)
	return err
}

// AppendEvents writes a batch of events in one transaction.
func (a *Archive) AppendEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := a.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (at, nation, category, description) VALUES (?, ?, ?, ?)",
			e.At.UnixMilli(), e.Nation, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

type eventRow struct {
	At          int64  `db:"at"`
	Nation      string `db:"nation"`
	Category    string `db:"category"`
	Description string `db:"description"`
}

// RecentEvents returns the most recent limit events, newest first.
func (a *Archive) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := a.conn.Select(&rows,
		"SELECT at, nation, category, description FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event{
			At:          time.UnixMilli(r.At),
			Nation:      r.Nation,
			Category:    r.Category,
			Description: r.Description,
		}
	}
	return events, nil
}

// NationEvents returns the most recent limit events for one nation.
func (a *Archive) NationEvents(nationID string, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := a.conn.Select(&rows,
		"SELECT at, nation, category, description FROM events WHERE nation = ? ORDER BY id DESC LIMIT ?",
		nationID, limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event{
			At:          time.UnixMilli(r.At),
			Nation:      r.Nation,
			Category:    r.Category,
			Description: r.Description,
		}
	}
	return events, nil
}

// SaveMeta stores a key-value pair in archive metadata.
func (a *Archive) SaveMeta(key, value string) error {
	_, err := a.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (a *Archive) GetMeta(key string) (string, error) {
	var value string
	err := a.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// Flush drains the event log into the archive and records the flush time.
// Failures are logged and swallowed; the in-memory log stays authoritative.
func (a *Archive) Flush(log *engine.EventLog, now time.Time) {
	pending := log.Drain()
	if len(pending) == 0 {
		return
	}
	if err := a.AppendEvents(pending); err != nil {
		slog.Error("event archive flush failed", "events", len(pending), "error", err)
		log.Requeue(pending)
		return
	}
	if err := a.SaveMeta("last_flush", strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		slog.Warn("archive meta update failed", "error", err)
	}
	slog.Debug("event archive flushed", "events", len(pending))
}
