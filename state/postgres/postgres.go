// Package postgres is the durable state store, backed by PostgreSQL through
// database/sql and lib/pq. Stack records are stored as one JSON document per
// stack; events are append-only rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/gammadia/furnace/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS stacks (
	name       TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS stack_events (
	id        BIGSERIAL PRIMARY KEY,
	stack     TEXT NOT NULL,
	resource  TEXT NOT NULL DEFAULT '',
	status    TEXT NOT NULL,
	reason    TEXT NOT NULL DEFAULT '',
	timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS stack_events_stack_idx ON stack_events (stack, id);
`

type Store struct {
	db *sql.DB
}

var _ state.Store = (*Store)(nil)

// Open connects to PostgreSQL with a lib/pq DSN and bootstraps the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveStack(ctx context.Context, record *state.StackRecord) error {
	buf, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal stack record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stacks (name, record, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET record = EXCLUDED.record, updated_at = now()
	`, record.Name, buf)
	if err != nil {
		return fmt.Errorf("save stack '%s': %w", record.Name, err)
	}
	return nil
}

func (s *Store) LoadStacks(ctx context.Context) ([]*state.StackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM stacks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load stacks: %w", err)
	}
	defer rows.Close()

	var records []*state.StackRecord
	for rows.Next() {
		var buf []byte
		if err := rows.Scan(&buf); err != nil {
			return nil, fmt.Errorf("scan stack record: %w", err)
		}
		var record state.StackRecord
		if err := json.Unmarshal(buf, &record); err != nil {
			return nil, fmt.Errorf("unmarshal stack record: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

func (s *Store) DeleteStack(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stack_events WHERE stack = $1`, name); err != nil {
		return fmt.Errorf("delete events of stack '%s': %w", name, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM stacks WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete stack '%s': %w", name, err)
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, event *state.EventRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stack_events (stack, resource, status, reason, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, event.Stack, event.Resource, event.Status, event.Reason, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append event for stack '%s': %w", event.Stack, err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, stack string) ([]*state.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stack, resource, status, reason, timestamp
		FROM stack_events WHERE stack = $1 ORDER BY id
	`, stack)
	if err != nil {
		return nil, fmt.Errorf("list events of stack '%s': %w", stack, err)
	}
	defer rows.Close()

	var events []*state.EventRecord
	for rows.Next() {
		var event state.EventRecord
		if err := rows.Scan(&event.Stack, &event.Resource, &event.Status, &event.Reason, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
