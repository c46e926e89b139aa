package university

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"sanad/internal/registry/models"
	"sanad/pkg/domain"
	"sanad/pkg/platform/sentinel"
)

// Postgres persists universities as one row per aggregate with the document
// body in JSONB. Query columns are duplicated out of the document so index
// scans never parse JSON.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed university store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the university store needs.
const Schema = `
CREATE TABLE IF NOT EXISTS universities (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    province TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    name TEXT NOT NULL,
    body JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS universities_province_idx ON universities (province)`

// CreateIfCodeAvailable inserts the university unless its code is taken.
func (s *Postgres) CreateIfCodeAvailable(ctx context.Context, u *models.University) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal university %s: %w", u.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO universities (id, code, province, status, name, body)
        VALUES ($1, upper($2), $3, $4, $5, $6)`,
		string(u.ID), u.Code, u.Address.Province, string(u.Status), u.Name, body,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert university %s: %w", u.ID, err)
	}
	return nil
}

// FindByID returns the university.
func (s *Postgres) FindByID(ctx context.Context, id domain.UniversityID) (*models.University, error) {
	return scanUniversity(s.db.QueryRowContext(ctx,
		`SELECT body FROM universities WHERE id = $1`, string(id)))
}

// FindByCode returns the university with the given code.
func (s *Postgres) FindByCode(ctx context.Context, code string) (*models.University, error) {
	return scanUniversity(s.db.QueryRowContext(ctx,
		`SELECT body FROM universities WHERE code = upper($1)`, strings.TrimSpace(code)))
}

// List returns all universities ordered by name.
func (s *Postgres) List(ctx context.Context) ([]*models.University, error) {
	return s.list(ctx, `SELECT body FROM universities ORDER BY name`)
}

// ListByProvince returns active universities in a province, ordered by name.
func (s *Postgres) ListByProvince(ctx context.Context, province string) ([]*models.University, error) {
	return s.list(ctx, `
        SELECT body FROM universities
        WHERE lower(province) = lower($1) AND status = $2
        ORDER BY name`, province, string(models.UniversityActive))
}

// Count returns the number of registered universities.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM universities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count universities: %w", err)
	}
	return n, nil
}

// Execute runs validate-then-mutate atomically against one university under
// a row lock.
func (s *Postgres) Execute(ctx context.Context, id domain.UniversityID, validate func(*models.University) error, mutate func(*models.University)) (*models.University, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin university tx: %w", err)
	}
	defer tx.Rollback()

	u, err := scanUniversity(tx.QueryRowContext(ctx,
		`SELECT body FROM universities WHERE id = $1 FOR UPDATE`, string(id)))
	if err != nil {
		return nil, err
	}
	if err := validate(u); err != nil {
		return nil, err
	}
	mutate(u)

	body, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal university %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `
        UPDATE universities SET province = $2, status = $3, name = $4, body = $5 WHERE id = $1`,
		string(id), u.Address.Province, string(u.Status), u.Name, body,
	)
	if err != nil {
		return nil, fmt.Errorf("update university %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit university tx: %w", err)
	}
	return u, nil
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.University, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	defer rows.Close()

	var out []*models.University
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan university: %w", err)
		}
		var u models.University
		if err := json.Unmarshal(body, &u); err != nil {
			return nil, fmt.Errorf("unmarshal university: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUniversity(row rowScanner) (*models.University, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan university: %w", err)
	}
	var u models.University
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("unmarshal university: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
