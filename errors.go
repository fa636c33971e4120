package nutricoach

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRecordNotFound = errors.New("daily record not found")
)

// PersistenceError reports a storage failure that must surface to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err, or returns nil when err is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsNotFound reports whether err is a missing user or record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRecordNotFound)
}

// NoContentError is returned by a TextGenerator that answered without usable text.
type NoContentError struct {
	// Diagnostic is whatever the provider said about the empty answer, if anything.
	Diagnostic string
}

func (e *NoContentError) Error() string {
	if e.Diagnostic == "" {
		return "model returned no usable content"
	}
	return "model returned no usable content: " + e.Diagnostic
}
