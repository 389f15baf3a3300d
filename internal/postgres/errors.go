package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/lib/pq"
)

// Postgres error codes
const (
	codeUniqueViolation  = "23505"
	codeQueryCanceled    = "57014"
	codeLockNotAvailable = "55P03"
)

// IsUniqueViolation reports whether err is a unique violation, optionally of
// the named constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeUniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

// IsTimeout reports whether the statement was cancelled by statement_timeout
// or lock_timeout
func IsTimeout(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeQueryCanceled || pqErr.Code == codeLockNotAvailable
	}
	return false
}

// WrapError marks a driver error. sql.ErrNoRows becomes a not found error
// naming entity.
func WrapError(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	details := map[string]interface{}{
		"entity":    entity,
		"operation": op,
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrNotFound)
	case IsUniqueViolation(err, ""):
		return ierr.WithError(err).
			WithHintf("%s already exists", entity).
			WithReportableDetails(details).
			Mark(ierr.ErrAlreadyExists)
	case IsTimeout(err):
		return ierr.WithError(err).
			WithHint("The database did not respond in time").
			WithReportableDetails(details).
			Mark(ierr.ErrDatabase)
	default:
		return ierr.WithError(err).
			WithHintf("Failed to %s %s", op, entity).
			WithReportableDetails(details).
			Mark(ierr.ErrDatabase)
	}
}
