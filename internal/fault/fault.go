// Package fault defines the failure kinds every PartChain operation reports.
//
// Callers match kinds with errors.Is against the sentinel values; the contract
// router turns them into a status code with Status.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors, one per failure kind.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrInternal         = errors.New("internal error")
)

// Kind is the tag carried in a contract response.
type Kind string

const (
	KindOK               Kind = "OK"
	KindValidation       Kind = "VALIDATION"
	KindNotFound         Kind = "NOT_FOUND"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindConflict         Kind = "CONFLICT"
	KindInternal         Kind = "INTERNAL"
)

// Error is a failure with a human readable message which unwraps to its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) error { return newf(ErrValidation, format, args...) }

// NotFound reports a missing org, relationship, asset or investigation.
func NotFound(format string, args ...any) error { return newf(ErrNotFound, format, args...) }

// PermissionDenied reports an authorization or state machine violation.
func PermissionDenied(format string, args ...any) error {
	return newf(ErrPermissionDenied, format, args...)
}

// Conflict reports a duplicate record.
func Conflict(format string, args ...any) error { return newf(ErrConflict, format, args...) }

// Internal wraps an unexpected collaborator failure.
func Internal(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, fmt.Sprintf(format, args...), err)
}

// KindOf classifies err. A nil error is OK, anything unclassified is INTERNAL.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInternal):
		return KindInternal
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

var statusByKind = map[Kind]int{
	KindOK:               http.StatusOK,
	KindValidation:       http.StatusBadRequest,
	KindPermissionDenied: http.StatusForbidden,
	KindNotFound:         http.StatusNotFound,
	KindConflict:         http.StatusConflict,
	KindInternal:         http.StatusInternalServerError,
}

// Status returns the numeric status reported alongside the kind of err.
func Status(err error) int {
	return statusByKind[KindOf(err)]
}
