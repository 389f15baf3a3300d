package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrorBuilder accumulates context on an error before it is marked.
//
//	return ierr.NewError("payment not found").
//		WithHint("Check the payment id").
//		WithReportableDetails(map[string]interface{}{"payment_id": id}).
//		Mark(ierr.ErrNotFound)
type ErrorBuilder struct {
	err error
}

func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.NewWithDepth(1, msg)}
}

func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: errors.NewWithDepthf(1, format, args...)}
}

// WithError starts a builder from an existing error. A nil err yields a generic
// internal error so a builder chain never produces a nil error by accident.
func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.NewWithDepth(1, "unknown error")
	}
	return &ErrorBuilder{err: err}
}

// WithMessage prefixes the error message.
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint attaches a user facing hint. Hints are what the API renders.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err = errors.WithHint(b.err, fmt.Sprintf(format, args...))
	return b
}

// WithReportableDetails attaches details that are safe to return to API clients.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	if len(details) == 0 {
		return b
	}
	b.err = &withReportableDetails{cause: b.err, details: lo.Assign(map[string]interface{}{}, details)}
	return b
}

// Mark finalizes the builder and tags the error with a marker from errors.go.
func (b *ErrorBuilder) Mark(reference error) error {
	return errors.Mark(b.err, reference)
}

type withReportableDetails struct {
	cause   error
	details map[string]interface{}
}

func (w *withReportableDetails) Error() string { return w.cause.Error() }
func (w *withReportableDetails) Cause() error  { return w.cause }
func (w *withReportableDetails) Unwrap() error { return w.cause }

// GetReportableDetails merges every set of reportable details found in the
// chain. Outer details win over inner ones on key collision.
func GetReportableDetails(err error) map[string]interface{} {
	var layers []map[string]interface{}
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if w, ok := e.(*withReportableDetails); ok {
			layers = append(layers, w.details)
		}
	}
	if len(layers) == 0 {
		return nil
	}
	merged := make(map[string]interface{})
	for i := len(layers) - 1; i >= 0; i-- {
		for k, v := range layers[i] {
			merged[k] = v
		}
	}
	return merged
}

// GetHint returns the outermost hint, or "" when none was attached.
func GetHint(err error) string {
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		return ""
	}
	return hints[len(hints)-1]
}
