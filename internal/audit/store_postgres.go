package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events. Rows are insert-only; there is no
// update or delete path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a Postgres-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL the audit store needs.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
    id TEXT PRIMARY KEY,
    ts TIMESTAMPTZ NOT NULL,
    actor_id TEXT NOT NULL,
    actor_role TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    scope TEXT NOT NULL DEFAULT '',
    reason TEXT NOT NULL DEFAULT '',
    request_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_entity_idx ON audit_events (entity_id, ts)`

// Append records an event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO audit_events (id, ts, actor_id, actor_role, action, entity_id, scope, reason, request_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Timestamp, event.ActorID, event.ActorRole,
		string(event.Action), event.EntityID, event.Scope, event.Reason, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByEntity returns events for one entity, oldest first.
func (s *PostgresStore) ListByEntity(ctx context.Context, entityID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, ts, actor_id, actor_role, action, entity_id, scope, reason, request_id
        FROM audit_events WHERE entity_id = $1 ORDER BY ts`, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.ActorID, &e.ActorRole,
			&action, &e.EntityID, &e.Scope, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
