package keychain

import (
	"errors"
	"fmt"

	"github.com/hsiuhsiu/keychain-go/internal/bindings"
)

// ErrorCode identifies the failure class reported by the native store.
type ErrorCode = bindings.ErrorCode

// Native error codes re-exported for callers.
const (
	CodeNone         = bindings.CodeNone
	CodeGeneric      = bindings.CodeGeneric
	CodeNotFound     = bindings.CodeNotFound
	CodeAccessDenied = bindings.CodeAccessDenied
	CodeCancelled    = bindings.CodeCancelled
)

// Initialization failures, re-exported from the binding layer so callers
// never import internal packages. All are sticky: once initialization fails,
// every later operation reports the original cause without a fresh attempt.
var (
	ErrUnsupportedPlatform = bindings.ErrUnsupportedPlatform
	ErrLibraryNotFound     = bindings.ErrLibraryNotFound
	ErrLibraryLoad         = bindings.ErrLibraryLoad
	ErrInvalidState        = bindings.ErrInvalidState
)

// Error wraps a lower-layer failure with the operation that hit it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("keychain.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// OpError reports a native operation failure together with the error
// snapshot taken immediately after the failing call.
type OpError struct {
	Op      string
	Code    ErrorCode
	Message string
}

func (e *OpError) Error() string {
	return fmt.Sprintf("keychain.%s: %s (%s)", e.Op, e.Message, e.Code)
}

// IsNotFound reports whether err is an operation failure for a credential
// that does not exist in the store.
func IsNotFound(err error) bool {
	var oe *OpError
	return errors.As(err, &oe) && oe.Code == CodeNotFound
}
