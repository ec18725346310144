package bindings

import (
	"errors"
	"fmt"
	"strings"
)

// State tracks the lifecycle of the process-wide library handle.
type State uint32

const (
	StateUninitialized State = iota
	StateInitialized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// ErrorCode mirrors the native getLastError() enumeration.
type ErrorCode int32

const (
	CodeNone ErrorCode = iota
	CodeGeneric
	CodeNotFound
	CodeAccessDenied
	CodeCancelled
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNone:
		return "no error"
	case CodeGeneric:
		return "unknown error"
	case CodeNotFound:
		return "item not found"
	case CodeAccessDenied:
		return "access denied"
	case CodeCancelled:
		return "operation cancelled"
	default:
		return fmt.Sprintf("error code %d", int32(c))
	}
}

var (
	// ErrUnsupportedPlatform reports an OS/architecture pair outside the
	// set the native library is published for.
	ErrUnsupportedPlatform = errors.New("bindings: unsupported OS/architecture")

	// ErrLibraryNotFound reports that neither the candidate paths nor the
	// default loader search located the native library.
	ErrLibraryNotFound = errors.New("bindings: native library not found")

	// ErrLibraryLoad reports a library that was located but failed to load,
	// or a required symbol that was absent.
	ErrLibraryLoad = errors.New("bindings: native library failed to load")

	// ErrInvalidState reports a library path override after initialization
	// has already been attempted.
	ErrInvalidState = errors.New("bindings: library path cannot change after initialization")
)

// PlatformError carries the unrecognized OS/architecture pair.
type PlatformError struct {
	OS   string
	Arch string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("bindings: no native library variant for %s/%s", e.OS, e.Arch)
}

func (e *PlatformError) Is(target error) bool { return target == ErrUnsupportedPlatform }

// NotFoundError lists every path probed before giving up.
type NotFoundError struct {
	Name      string
	Attempted []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bindings: %s not found; attempted: %s", e.Name, strings.Join(e.Attempted, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrLibraryNotFound }

// LoadError wraps a loader or symbol-resolution failure for a library that
// was actually located.
type LoadError struct {
	Path   string // library path, when the open itself failed
	Symbol string // entry point name, when resolution failed
	Err    error
}

func (e *LoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("bindings: required symbol %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("bindings: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLibraryLoad }
