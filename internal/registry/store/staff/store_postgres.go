package staff

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

// Postgres persists staff users, one row per user with the document body in
// JSONB.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed staff store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the staff store needs.
const Schema = `
CREATE TABLE IF NOT EXISTS staff_users (
    id TEXT PRIMARY KEY,
    university_id TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL,
    name TEXT NOT NULL,
    body JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS staff_university_idx ON staff_users (university_id, role)`

// CreateIfEmailAvailable inserts the staff user unless the email is taken.
func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, u *models.StaffUser) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal staff %s: %w", u.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO staff_users (id, university_id, email, role, name, body)
        VALUES ($1, $2, lower($3), $4, $5, $6)`,
		string(u.ID), string(u.UniversityID), u.Email, string(u.Role), u.Name, body,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert staff %s: %w", u.ID, err)
	}
	return nil
}

// FindByID returns the staff user.
func (s *Postgres) FindByID(ctx context.Context, id domain.StaffID) (*models.StaffUser, error) {
	return scanStaff(s.db.QueryRowContext(ctx,
		`SELECT body FROM staff_users WHERE id = $1`, string(id)))
}

// FindByEmail returns the staff user with the given email.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	return scanStaff(s.db.QueryRowContext(ctx,
		`SELECT body FROM staff_users WHERE email = lower($1)`, strings.TrimSpace(email)))
}

// ListByUniversity returns a university's staff ordered by ID.
func (s *Postgres) ListByUniversity(ctx context.Context, universityID domain.UniversityID) ([]*models.StaffUser, error) {
	return s.list(ctx, `
        SELECT body FROM staff_users WHERE university_id = $1 ORDER BY id`,
		string(universityID))
}

// ListByRole returns a university's staff holding one role, ordered by ID.
func (s *Postgres) ListByRole(ctx context.Context, universityID domain.UniversityID, role domain.Role) ([]*models.StaffUser, error) {
	return s.list(ctx, `
        SELECT body FROM staff_users WHERE university_id = $1 AND role = $2 ORDER BY id`,
		string(universityID), string(role))
}

// Execute runs validate-then-mutate atomically against one staff user under
// a row lock.
func (s *Postgres) Execute(ctx context.Context, id domain.StaffID, validate func(*models.StaffUser) error, mutate func(*models.StaffUser)) (*models.StaffUser, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin staff tx: %w", err)
	}
	defer tx.Rollback()

	u, err := scanStaff(tx.QueryRowContext(ctx,
		`SELECT body FROM staff_users WHERE id = $1 FOR UPDATE`, string(id)))
	if err != nil {
		return nil, err
	}
	if err := validate(u); err != nil {
		return nil, err
	}
	mutate(u)

	body, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal staff %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `
        UPDATE staff_users SET role = $2, name = $3, body = $4 WHERE id = $1`,
		string(id), string(u.Role), u.Name, body,
	)
	if err != nil {
		return nil, fmt.Errorf("update staff %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit staff tx: %w", err)
	}
	return u, nil
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.StaffUser, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var out []*models.StaffUser
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		var u models.StaffUser
		if err := json.Unmarshal(body, &u); err != nil {
			return nil, fmt.Errorf("unmarshal staff: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*models.StaffUser, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	var u models.StaffUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("unmarshal staff: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
