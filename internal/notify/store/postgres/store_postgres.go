// Package postgres persists the notification journal in PostgreSQL over
// database/sql with the pq driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"selfid/internal/notify"
)

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	kind TEXT NOT NULL,
	emitted_at TIMESTAMPTZ NOT NULL,
	payload JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS notifications_kind_idx ON notifications (kind);
`

// Store is a PostgreSQL-backed notification journal.
type Store struct {
	db *sql.DB
}

// Open connects to the given DSN and ensures the journal schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure notifications schema: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection; the caller owns schema and lifecycle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event notify.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, kind, emitted_at, payload) VALUES ($1, $2, $3, $4)`,
		event.ID, string(event.Kind), event.Timestamp, payload,
	)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]notify.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM notifications ORDER BY emitted_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var events []notify.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		var event notify.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }
