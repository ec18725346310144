package keychain

import (
	"sync"

	"github.com/hsiuhsiu/keychain-go/internal/bindings"
)

// opMu pairs each native call with its error-snapshot read. The native
// last-error slot is process-global; without this lock a snapshot taken
// after a failure could belong to a concurrent sibling call.
var opMu sync.Mutex

// SetLibraryPath overrides auto-resolution of the native library. It must be
// called before the first operation; afterwards it fails with
// ErrInvalidState until Unload resets the lifecycle.
func SetLibraryPath(path string) error {
	if err := bindings.SetLibraryPath(path); err != nil {
		return &Error{Op: "SetLibraryPath", Err: err}
	}
	return nil
}

// Unload releases the native library and returns the package to its
// pristine state. The next operation (or SetLibraryPath) starts the
// lifecycle over. Safe to call when nothing was ever loaded.
func Unload() error {
	opMu.Lock()
	defer opMu.Unlock()
	if err := bindings.Unload(); err != nil {
		return &Error{Op: "Unload", Err: err}
	}
	return nil
}

// SetPassword stores password for the (pkg, service, username) triple,
// loading the native library on first use. May block on a user prompt.
func SetPassword(pkg, service, username, password string) error {
	opMu.Lock()
	defer opMu.Unlock()
	ok, err := bindings.InvokeSetPassword(text(pkg), text(service), text(username), text(password))
	if err != nil {
		return &Error{Op: "SetPassword", Err: err}
	}
	if !ok {
		return snapshotError("SetPassword")
	}
	return nil
}

// GetPassword retrieves the password stored for the (pkg, service, username)
// triple. A missing credential is an *OpError (see IsNotFound), never a
// crash. May block on a user prompt.
func GetPassword(pkg, service, username string) (string, error) {
	opMu.Lock()
	defer opMu.Unlock()
	secret, found, err := bindings.InvokeGetPassword(text(pkg), text(service), text(username))
	if err != nil {
		return "", &Error{Op: "GetPassword", Err: err}
	}
	if !found {
		return "", snapshotError("GetPassword")
	}
	return string(secret), nil
}

// DeletePassword removes the credential stored for the (pkg, service,
// username) triple. May block on a user prompt.
func DeletePassword(pkg, service, username string) error {
	opMu.Lock()
	defer opMu.Unlock()
	ok, err := bindings.InvokeDeletePassword(text(pkg), text(service), text(username))
	if err != nil {
		return &Error{Op: "DeletePassword", Err: err}
	}
	if !ok {
		return snapshotError("DeletePassword")
	}
	return nil
}

// text encodes a value for the foreign boundary. The result is never nil: an
// empty string crosses as an encoded empty string, not as an absent value.
func text(s string) []byte {
	b := make([]byte, len(s))
	copy(b, s)
	return b
}

// snapshotError builds the structured failure from the native error slot:
// code first, then message, with a generic fallback when the native side has
// no message to offer.
func snapshotError(op string) error {
	code, err := bindings.FetchLastError()
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	msg, err := bindings.FetchLastErrorMessage()
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	if msg == "" {
		msg = "Unknown error"
	}
	return &OpError{Op: op, Code: code, Message: msg}
}
