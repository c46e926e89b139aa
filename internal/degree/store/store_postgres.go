package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sanad/internal/degree/models"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
)

// Postgres persists degree records as one row per record with the document
// body in JSONB. Query columns are duplicated out of the document so index
// scans never parse JSON.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed degree store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the degree store needs. Applied by migrations in
// deployments; integration tests execute it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS degrees (
    id TEXT PRIMARY KEY,
    university_id TEXT NOT NULL,
    national_id TEXT NOT NULL,
    program_type TEXT NOT NULL,
    state TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    version INT NOT NULL,
    body JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS degrees_university_idx ON degrees (university_id, created_at DESC);
CREATE INDEX IF NOT EXISTS degrees_student_idx ON degrees (national_id, created_at DESC);
CREATE INDEX IF NOT EXISTS degrees_state_idx ON degrees (state)`

// Create inserts a new record.
func (s *Postgres) Create(ctx context.Context, d *models.DegreeRecord) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal degree %s: %w", d.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO degrees (id, university_id, national_id, program_type, state, created_at, version, body)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(d.ID), string(d.UniversityID), d.Student.NationalID,
		d.Program.Type, string(d.State), d.CreatedAt, d.Version, body,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert degree %s: %w", d.ID, err)
	}
	return nil
}

// FindByID returns the record.
func (s *Postgres) FindByID(ctx context.Context, id domain.DegreeID) (*models.DegreeRecord, error) {
	return scanDegree(s.db.QueryRowContext(ctx,
		`SELECT body FROM degrees WHERE id = $1`, string(id)))
}

// ListByUniversity returns a university's records, newest first.
func (s *Postgres) ListByUniversity(ctx context.Context, universityID domain.UniversityID) ([]*models.DegreeRecord, error) {
	return s.list(ctx, `
        SELECT body FROM degrees WHERE university_id = $1
        ORDER BY created_at DESC, id DESC`, string(universityID))
}

// ListByStudent returns every record issued against one national ID,
// newest first.
func (s *Postgres) ListByStudent(ctx context.Context, nationalID string) ([]*models.DegreeRecord, error) {
	return s.list(ctx, `
        SELECT body FROM degrees WHERE national_id = $1
        ORDER BY created_at DESC, id DESC`, nationalID)
}

// Search returns records matching the filter, newest first. Empty filter
// fields match everything.
func (s *Postgres) Search(ctx context.Context, filter Filter) ([]*models.DegreeRecord, error) {
	return s.list(ctx, `
        SELECT body FROM degrees
        WHERE ($1 = '' OR university_id = $1)
          AND ($2 = '' OR upper(program_type) = upper($2))
          AND ($3 = '' OR state = $3)
        ORDER BY created_at DESC, id DESC`,
		string(filter.UniversityID), filter.ProgramType, string(filter.State))
}

// Count returns the number of degree records.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM degrees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count degrees: %w", err)
	}
	return n, nil
}

// Execute runs validate-then-mutate atomically against one record. The row
// is locked with SELECT ... FOR UPDATE for the whole transaction, so racing
// transitions serialise inside the database exactly like the in-memory
// store's mutex.
func (s *Postgres) Execute(ctx context.Context, id domain.DegreeID, validate func(*models.DegreeRecord) error, mutate func(*models.DegreeRecord)) (*models.DegreeRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin degree tx: %w", err)
	}
	defer tx.Rollback()

	d, err := scanDegree(tx.QueryRowContext(ctx,
		`SELECT body FROM degrees WHERE id = $1 FOR UPDATE`, string(id)))
	if err != nil {
		return nil, err
	}
	if err := validate(d); err != nil {
		return nil, err
	}
	mutate(d)

	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal degree %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `
        UPDATE degrees SET state = $2, version = $3, body = $4 WHERE id = $1`,
		string(id), string(d.State), d.Version, body,
	)
	if err != nil {
		return nil, fmt.Errorf("update degree %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit degree tx: %w", err)
	}
	return d, nil
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.DegreeRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list degrees: %w", err)
	}
	defer rows.Close()

	var out []*models.DegreeRecord
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan degree: %w", err)
		}
		var d models.DegreeRecord
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, fmt.Errorf("unmarshal degree: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDegree(row rowScanner) (*models.DegreeRecord, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan degree: %w", err)
	}
	var d models.DegreeRecord
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("unmarshal degree: %w", err)
	}
	return &d, nil
}
