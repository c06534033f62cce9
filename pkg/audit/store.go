// Package audit persists the append-only record of gateway decisions.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one gateway decision. Written once, never updated.
type Record struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Level       string    `json:"level"` // INFO or WARNING
	Action      string    `json:"action"`
	PayloadJSON string    `json:"payload_json"`
	Accepted    bool      `json:"accepted"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store receives gateway decisions.
type Store interface {
	Record(rec Record) error
}

const schema = `
CREATE TABLE IF NOT EXISTS robot_actions (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	level        TEXT NOT NULL,
	action       TEXT NOT NULL,
	payload_json TEXT NOT NULL,
	accepted     INTEGER NOT NULL,
	reason       TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_robot_actions_created_at ON robot_actions(created_at);
`

// DB is a sqlite-backed Store.
type DB struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the audit database at path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &DB{db: sqlDB}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Record appends one decision.
func (d *DB) Record(rec Record) error {
	accepted := 0
	if rec.Accepted {
		accepted = 1
	}
	_, err := d.db.Exec(`
		INSERT INTO robot_actions (id, source, level, action, payload_json, accepted, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Source, rec.Level, rec.Action, rec.PayloadJSON, accepted, rec.Reason, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert action record: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (d *DB) Recent(limit int) ([]Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := d.db.Query(`
		SELECT id, source, level, action, payload_json, accepted, reason, created_at
		FROM robot_actions ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var accepted int
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Level, &rec.Action,
			&rec.PayloadJSON, &accepted, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Accepted = accepted == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// NopStore discards records. Used when persistence is not configured;
// decisions are still logged and streamed as events.
type NopStore struct{}

// Record discards the record.
func (NopStore) Record(Record) error { return nil }
