package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error classes we translate into domain errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint hit.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// IsForeignKeyViolation reports whether err is a restricted-delete or
// missing-reference violation.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
