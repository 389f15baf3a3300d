package errors

import (
	"github.com/cockroachdb/errors"
)

// Markers used with ErrorBuilder.Mark. Every error returned across a package
// boundary should carry exactly one of these so callers and the HTTP layer can
// classify it with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrVersionConflict  = errors.New("version conflict")
	ErrValidation       = errors.New("validation error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrPermissionDenied = errors.New("permission denied")
	ErrHTTPClient       = errors.New("http client error")
	ErrDatabase         = errors.New("database error")
	ErrSystem           = errors.New("system error")
	ErrInternal         = errors.New("internal error")

	// payment core
	ErrAuthentication = errors.New("authentication error")
	ErrTransport      = errors.New("transport error")
	ErrTimeout        = errors.New("timeout")
	ErrConfiguration  = errors.New("configuration error")
	ErrApplier        = errors.New("applier error")
	ErrRateLimited    = errors.New("rate limited")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsApplier(err error) bool {
	return errors.Is(err, ErrApplier)
}

// Is reports whether any error in err's chain matches target, including marks.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As re-exported so callers importing this package as ierr do not
// also need the standard errors package.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
