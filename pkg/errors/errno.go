// Package errors provides the structured error code system for kala-rag.
//
// Error Code Format: BBCC (4 digits)
//
//	BB (10-99): Category code - identifies the failing component
//	CC (00-99): Sequence number - specific error within the category
//
// Category Codes (BB):
//
//	10: Document/format errors (extraction boundary)
//	20: Chunking errors
//	30: Embedding errors
//	40: Index/vector store errors
//	50: Configuration errors
//
// Usage:
//
//	// Using predefined errors
//	return errors.ErrUnsupportedFormat.WithMessagef("no extractor for %q", ext)
//
//	// Wrapping underlying errors
//	return errors.ErrIndexOperation.WithCause(err)
package errors

import (
	"fmt"
	"sync"
)

// Errno represents a structured error with a code and message.
type Errno struct {
	// Code is the unique error code.
	Code int `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// cause is the underlying error.
	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// WithCause creates a new Errno with the given cause.
func (e *Errno) WithCause(cause error) *Errno {
	return &Errno{
		Code:    e.Code,
		Message: e.Message,
		cause:   cause,
	}
}

// WithMessage creates a new Errno with a custom message.
func (e *Errno) WithMessage(msg string) *Errno {
	return &Errno{
		Code:    e.Code,
		Message: msg,
		cause:   e.cause,
	}
}

// WithMessagef creates a new Errno with a formatted message.
func (e *Errno) WithMessagef(format string, args ...any) *Errno {
	return &Errno{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		cause:   e.cause,
	}
}

// Is checks if this error matches the target error code.
// Errors derived via WithCause/WithMessage keep their code, so
// errors.Is(err, ErrExtraction) matches any extraction failure.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

// errnoRegistry stores all registered error codes for uniqueness validation.
var (
	errnoRegistry = make(map[int]*Errno)
	registryMu    sync.RWMutex
)

// Register registers an Errno and validates uniqueness.
// Panics if the code is already registered.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := errnoRegistry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, existing.Message))
	}
	errnoRegistry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for the given code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := errnoRegistry[code]
	return e, ok
}

// IsCode checks if the error has the given error code.
func IsCode(err error, code int) bool {
	if e, ok := err.(*Errno); ok {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code from an error.
// Returns -1 if the error is not an Errno.
func GetCode(err error) int {
	if e, ok := err.(*Errno); ok {
		return e.Code
	}
	return -1
}

// MakeCode builds an error code from category and sequence parts.
func MakeCode(category, seq int) int {
	return category*100 + seq
}
