package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the different classes of failure a collection run can hit
type ErrorType string

const (
	ErrorTypeTransientExtraction ErrorType = "transient_extraction"
	ErrorTypeFeedExhausted       ErrorType = "feed_exhausted"
	ErrorTypeStoreCorrupt        ErrorType = "store_corrupt"
	ErrorTypeInterrupted         ErrorType = "interrupted"
	ErrorTypeEngineFault         ErrorType = "engine_fault"
	ErrorTypeConfig              ErrorType = "config"
	ErrorTypeUnknown             ErrorType = "unknown"
)

// Sentinel errors matched with errors.Is
var (
	ErrTransientExtraction = stderrors.New("page context unavailable")
	ErrStoreCorrupt        = stderrors.New("persisted store is corrupt")
	ErrInterrupted         = stderrors.New("collection interrupted")
)

// Error is a typed error carrying the failing operation
type Error struct {
	Type ErrorType
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Type, e.Op, e.Err)
}

// Unwrap exposes the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets a typed error match the sentinel of its class
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransientExtraction:
		return e.Type == ErrorTypeTransientExtraction
	case ErrStoreCorrupt:
		return e.Type == ErrorTypeStoreCorrupt
	case ErrInterrupted:
		return e.Type == ErrorTypeInterrupted
	}
	return false
}

// New creates a typed error
func New(errorType ErrorType, op string, err error) *Error {
	return &Error{Type: errorType, Op: op, Err: err}
}

// Transient marks err as a transient extraction failure
func Transient(op string, err error) error {
	return New(ErrorTypeTransientExtraction, op, err)
}

// Corrupt marks err as a store corruption failure
func Corrupt(path string, err error) error {
	return New(ErrorTypeStoreCorrupt, path, err)
}

// TypeOf returns the error type of err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	switch {
	case stderrors.Is(err, ErrTransientExtraction):
		return ErrorTypeTransientExtraction
	case stderrors.Is(err, ErrStoreCorrupt):
		return ErrorTypeStoreCorrupt
	case stderrors.Is(err, ErrInterrupted):
		return ErrorTypeInterrupted
	}
	return ErrorTypeUnknown
}

// IsTransient reports whether err is a transient extraction failure
func IsTransient(err error) bool {
	return err != nil && stderrors.Is(err, ErrTransientExtraction)
}

// IsStoreCorrupt reports whether err came from an unreadable store
func IsStoreCorrupt(err error) bool {
	return err != nil && stderrors.Is(err, ErrStoreCorrupt)
}

// IsRetryable checks if an error type should be retried in place
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransientExtraction:
		return true
	case ErrorTypeFeedExhausted, ErrorTypeStoreCorrupt, ErrorTypeInterrupted,
		ErrorTypeEngineFault, ErrorTypeConfig:
		return false
	default:
		return false
	}
}
