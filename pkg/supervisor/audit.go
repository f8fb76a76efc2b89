package supervisor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"mercator-hq/ganymede/pkg/command"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS applied_orders (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT NOT NULL,
	command_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applied_orders_recorded_at ON applied_orders(recorded_at);
`

// AuditLog records every configuration order applied to the routing tables in
// a sqlite database, so operators can reconstruct how the running state came
// to be.
type AuditLog struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

// AuditEntry is one recorded order.
type AuditEntry struct {
	RecordedAt time.Time     `json:"recorded_at"`
	CommandID  string        `json:"command_id"`
	Order      command.Order `json:"order"`
}

// OpenAuditLog opens (creating if needed) the audit database at path with WAL
// mode and a busy timeout.
func OpenAuditLog(path string) (*AuditLog, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, int((5 * time.Second).Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open audit database: %w", err)
	}

	// sqlite handles one writer at a time; keep the pool from fanning out.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize audit schema: %w", err)
	}
	return &AuditLog{db: db}, nil
}

// Record appends one applied order.
func (a *AuditLog) Record(ctx context.Context, commandID string, order *command.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("could not serialize order: %w", err)
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO applied_orders (recorded_at, command_id, kind, payload) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), commandID, string(order.Kind), string(payload))
	if err != nil {
		return fmt.Errorf("could not record order: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT recorded_at, command_id, payload FROM applied_orders ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("could not query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var recordedAt, commandID, payload string
		if err := rows.Scan(&recordedAt, &commandID, &payload); err != nil {
			return nil, fmt.Errorf("could not scan audit row: %w", err)
		}

		entry := AuditEntry{CommandID: commandID}
		entry.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("corrupt audit timestamp %q: %w", recordedAt, err)
		}
		if err := json.Unmarshal([]byte(payload), &entry.Order); err != nil {
			return nil, fmt.Errorf("corrupt audit payload: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close checkpoints and closes the database.
func (a *AuditLog) Close() error {
	a.closeOnce.Do(func() {
		a.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		a.closeErr = a.db.Close()
	})
	return a.closeErr
}
