package allocator

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres allocates sequence numbers from a single-row-per-scope table.
// The upsert runs under row-level locking, so concurrent allocations for a
// scope serialize inside the database.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed allocator.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the allocator needs. Applied by migrations in
// deployments; integration tests execute it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS sequences (
    scope TEXT PRIMARY KEY,
    value BIGINT NOT NULL
)`

// Next returns the next sequence number for scope, starting at 1.
func (a *Postgres) Next(ctx context.Context, scope string) (uint64, error) {
	var value uint64
	err := a.db.QueryRowContext(ctx, `
        INSERT INTO sequences (scope, value) VALUES ($1, 1)
        ON CONFLICT (scope) DO UPDATE SET value = sequences.value + 1
        RETURNING value`, scope).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("allocator next %q: %w", scope, err)
	}
	return value, nil
}
