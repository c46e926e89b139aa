package store

import (
	"errors"

	"github.com/lib/pq"
)

// isUniqueViolation matches Postgres error class 23505.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
