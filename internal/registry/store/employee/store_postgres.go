package employee

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

// Postgres persists regulator employees, one row per employee with the
// document body in JSONB.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed employee store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is the DDL the employee store needs.
const Schema = `
CREATE TABLE IF NOT EXISTS hec_employees (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL,
    body JSONB NOT NULL
)`

// CreateIfEmailAvailable inserts the employee unless the email is taken.
func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, e *models.Employee) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal employee %s: %w", e.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO hec_employees (id, email, status, body)
        VALUES ($1, lower($2), $3, $4)`,
		string(e.ID), e.Email, string(e.Status), body,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert employee %s: %w", e.ID, err)
	}
	return nil
}

// FindByID returns the employee.
func (s *Postgres) FindByID(ctx context.Context, id domain.EmployeeID) (*models.Employee, error) {
	return scanEmployee(s.db.QueryRowContext(ctx,
		`SELECT body FROM hec_employees WHERE id = $1`, string(id)))
}

// FindByEmail returns the employee with the given email.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Employee, error) {
	return scanEmployee(s.db.QueryRowContext(ctx,
		`SELECT body FROM hec_employees WHERE email = lower($1)`, strings.TrimSpace(email)))
}

// List returns all employees ordered by ID.
func (s *Postgres) List(ctx context.Context) ([]*models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM hec_employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []*models.Employee
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		var e models.Employee
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, fmt.Errorf("unmarshal employee: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountActive returns the number of ACTIVE employees.
func (s *Postgres) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM hec_employees WHERE status = $1`,
		string(domain.ActorActive)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

// Execute runs validate-then-mutate atomically against one employee under a
// row lock.
func (s *Postgres) Execute(ctx context.Context, id domain.EmployeeID, validate func(*models.Employee) error, mutate func(*models.Employee)) (*models.Employee, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin employee tx: %w", err)
	}
	defer tx.Rollback()

	e, err := scanEmployee(tx.QueryRowContext(ctx,
		`SELECT body FROM hec_employees WHERE id = $1 FOR UPDATE`, string(id)))
	if err != nil {
		return nil, err
	}
	if err := validate(e); err != nil {
		return nil, err
	}
	mutate(e)

	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal employee %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx, `
        UPDATE hec_employees SET status = $2, body = $3 WHERE id = $1`,
		string(id), string(e.Status), body,
	)
	if err != nil {
		return nil, fmt.Errorf("update employee %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit employee tx: %w", err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*models.Employee, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	var e models.Employee
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("unmarshal employee: %w", err)
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
