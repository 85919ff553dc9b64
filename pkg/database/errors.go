package database

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/lib/pq"
)

// Postgres error codes worth translating to client-facing failures
const (
	pqUniqueViolation     = "23505"
	pqNotNullViolation    = "23502"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint error
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return false
}

// TranslateConstraintError maps Postgres constraint violations to HTTP errors:
// unique violations to 409, not-null/foreign-key/check violations to 400.
// Other errors are returned unchanged.
func TranslateConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return httperror.NewHTTPErrorf(http.StatusConflict, "record violates unique constraint %s", pqErr.Constraint)
	case pqNotNullViolation:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "column %s must not be null", pqErr.Column)
	case pqForeignKeyViolation:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "record violates foreign key constraint %s", pqErr.Constraint)
	case pqCheckViolation:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "record violates check constraint %s", pqErr.Constraint)
	}

	return err
}
