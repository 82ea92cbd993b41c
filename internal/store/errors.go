package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorKind categorizes storage failures.
type ErrorKind string

const (
	// AllocationFailure indicates the connection pool could not be created.
	AllocationFailure ErrorKind = "ALLOCATION_FAILURE"

	// ConnectionFailure indicates the backing store could not be opened at
	// the given location, or the setup hook failed on the new connection.
	ConnectionFailure ErrorKind = "CONNECTION_FAILURE"

	// StatementPrepareFailure indicates a fixed statement failed to compile
	// against the opened connection (schema mismatch, corrupt file, ...).
	StatementPrepareFailure ErrorKind = "STATEMENT_PREPARE_FAILURE"

	// ExecutionFailure indicates a bind, step or reset on a prepared
	// statement failed, or busy retries were exhausted.
	ExecutionFailure ErrorKind = "EXECUTION_FAILURE"
)

// ErrKeyMissing is returned by ConfigGet when no row matches the key.
// It is a successful-but-empty outcome, not a failure.
var ErrKeyMissing = errors.New("config key missing")

// ErrClosed is wrapped in the ExecutionFailure returned by calls made on a
// handle after Close.
var ErrClosed = errors.New("store is closed")

// Error is a classified storage failure.
type Error struct {
	// Kind identifies the failure category.
	Kind ErrorKind

	// Op names the operation or statement that failed.
	Op string

	// Err is the underlying cause.
	Err error
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a storage Error of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// IsFailure reports whether err is a storage failure of any kind.
// ErrKeyMissing is not a failure.
func IsFailure(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// IsBusy reports whether err was caused by the engine reporting the database
// as busy or locked.
func IsBusy(err error) bool {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code == sqlite3.ErrBusy || sqErr.Code == sqlite3.ErrLocked
	}
	return false
}
