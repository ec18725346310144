package bindings

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
)

// The five entry points the native library must export. The table is bound
// atomically: all resolve, or the load fails as a whole.
const (
	symSetPassword         = "setPassword"
	symGetPassword         = "getPassword"
	symDeletePassword      = "deletePassword"
	symGetLastErrorMessage = "getLastErrorMessage"
	symGetLastError        = "getLastError"
)

type symbolTable struct {
	setPassword         uintptr
	getPassword         uintptr
	deletePassword      uintptr
	getLastErrorMessage uintptr
	getLastError        uintptr
}

// nativeAPI is the OS dynamic-loader facility behind a swappable seam.
// Tests install an in-memory fake (see testing.go).
type nativeAPI struct {
	open  func(path string) (uintptr, error)
	sym   func(handle uintptr, name string) (uintptr, error)
	close func(handle uintptr) error
	call  func(fn uintptr, args ...uintptr) uintptr
	free  func(ptr uintptr)
}

var native = nativeAPI{open: dlOpen, sym: dlSym, close: dlClose, call: dlCall, free: stdFree}

// library owns the process-wide loaded-library state. Every mutation happens
// under mu; state is additionally published through an atomic so invokers
// can skip the lock once initialization is confirmed complete.
type library struct {
	mu       sync.Mutex
	state    atomic.Uint32
	override string
	handle   uintptr
	syms     symbolTable
	initErr  error

	goos   string
	goarch string
}

var global = newLibrary()

func newLibrary() *library {
	return &library{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// CurrentState reports the lifecycle state. Diagnostic only; by the time the
// caller looks at the result the state may already have moved on.
func CurrentState() State { return State(global.state.Load()) }

// SetLibraryPath records an explicit library location, overriding
// auto-resolution. It fails with ErrInvalidState once initialization has
// been attempted, successfully or not; Unload makes it settable again.
func SetLibraryPath(path string) error { return global.setPath(path) }

func (l *library) setPath(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s := State(l.state.Load()); s != StateUninitialized {
		return fmt.Errorf("%w (currently %s)", ErrInvalidState, s)
	}
	l.override = path
	return nil
}

// EnsureInitialized loads the native library and binds its symbols exactly
// once. Failure is sticky: later calls get the original cause back without
// a fresh load attempt.
func EnsureInitialized() error { return global.ensure() }

func (l *library) ensure() error {
	if State(l.state.Load()) == StateInitialized {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch State(l.state.Load()) {
	case StateInitialized:
		return nil
	case StateFailed:
		return l.initErr
	}
	handle, syms, err := l.load()
	if err != nil {
		l.initErr = err
		l.state.Store(uint32(StateFailed))
		return err
	}
	l.handle = handle
	l.syms = syms
	l.state.Store(uint32(StateInitialized))
	return nil
}

// load opens the library and resolves the symbol table. Called with mu held.
func (l *library) load() (uintptr, symbolTable, error) {
	handle, err := l.open()
	if err != nil {
		return 0, symbolTable{}, err
	}
	syms, err := resolveSymbols(handle)
	if err != nil {
		// Do not leave a half-bound library behind the failure.
		_ = native.close(handle)
		return 0, symbolTable{}, err
	}
	return handle, syms, nil
}

func (l *library) open() (uintptr, error) {
	if l.override != "" {
		handle, err := native.open(l.override)
		if err != nil {
			return 0, &LoadError{Path: l.override, Err: err}
		}
		return handle, nil
	}
	rid, err := runtimeIdentifier(l.goos, l.goarch)
	if err != nil {
		return 0, err
	}
	name := libraryFileName(l.goos)
	attempted := candidatePaths(rid, name, searchBases())
	for _, path := range attempted {
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		handle, openErr := native.open(path)
		if openErr != nil {
			return 0, &LoadError{Path: path, Err: openErr}
		}
		return handle, nil
	}
	// Nothing in the package layout; let the loader search its default
	// locations by bare name.
	if handle, openErr := native.open(name); openErr == nil {
		return handle, nil
	}
	return 0, &NotFoundError{Name: name, Attempted: append(attempted, name)}
}

func resolveSymbols(handle uintptr) (symbolTable, error) {
	var syms symbolTable
	for _, entry := range []struct {
		name string
		addr *uintptr
	}{
		{symSetPassword, &syms.setPassword},
		{symGetPassword, &syms.getPassword},
		{symDeletePassword, &syms.deletePassword},
		{symGetLastErrorMessage, &syms.getLastErrorMessage},
		{symGetLastError, &syms.getLastError},
	} {
		addr, err := native.sym(handle, entry.name)
		if err == nil && addr == 0 {
			err = fmt.Errorf("resolved to NULL")
		}
		if err != nil {
			return symbolTable{}, &LoadError{Symbol: entry.name, Err: err}
		}
		*entry.addr = addr
	}
	return syms, nil
}

// Unload releases the library handle, clears the symbol table and resets the
// state to uninitialized, allowing SetLibraryPath and a fresh load. Calling
// it when nothing was ever loaded is a no-op.
func Unload() error { return global.unload() }

func (l *library) unload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var err error
	if l.handle != 0 {
		err = native.close(l.handle)
	}
	l.handle = 0
	l.syms = symbolTable{}
	l.initErr = nil
	l.state.Store(uint32(StateUninitialized))
	return err
}

// InvokeSetPassword stores a credential under the (pkg, service, user)
// triple. A nil argument crosses the boundary as NULL (absent); a non-nil
// empty one as an encoded empty string. A false result means the native side
// failed and left its reason in the last-error slot.
func InvokeSetPassword(pkg, service, user, password []byte) (bool, error) {
	if err := global.ensure(); err != nil {
		return false, err
	}
	p1, p2, p3, p4 := cBuffer(pkg), cBuffer(service), cBuffer(user), cBuffer(password)
	r := native.call(global.syms.setPassword, bufArg(p1), bufArg(p2), bufArg(p3), bufArg(p4))
	runtime.KeepAlive(p1)
	runtime.KeepAlive(p2)
	runtime.KeepAlive(p3)
	runtime.KeepAlive(p4)
	return byte(r) != 0, nil
}

// InvokeGetPassword looks a credential up. found is false when the native
// side returned NULL; the last-error slot says why. The native buffer is
// copied out and released before returning.
func InvokeGetPassword(pkg, service, user []byte) (secret []byte, found bool, err error) {
	if err := global.ensure(); err != nil {
		return nil, false, err
	}
	p1, p2, p3 := cBuffer(pkg), cBuffer(service), cBuffer(user)
	r := native.call(global.syms.getPassword, bufArg(p1), bufArg(p2), bufArg(p3))
	runtime.KeepAlive(p1)
	runtime.KeepAlive(p2)
	runtime.KeepAlive(p3)
	if r == 0 {
		return nil, false, nil
	}
	secret = goBytes(r)
	native.free(r)
	return secret, true, nil
}

// InvokeDeletePassword removes a credential. A false result means the native
// side failed and left its reason in the last-error slot.
func InvokeDeletePassword(pkg, service, user []byte) (bool, error) {
	if err := global.ensure(); err != nil {
		return false, err
	}
	p1, p2, p3 := cBuffer(pkg), cBuffer(service), cBuffer(user)
	r := native.call(global.syms.deletePassword, bufArg(p1), bufArg(p2), bufArg(p3))
	runtime.KeepAlive(p1)
	runtime.KeepAlive(p2)
	runtime.KeepAlive(p3)
	return byte(r) != 0, nil
}

// FetchLastError reads the native error code. The slot is process-global and
// overwritten by the next native call on any thread; read it immediately
// after the failing call.
func FetchLastError() (ErrorCode, error) {
	if err := global.ensure(); err != nil {
		return CodeGeneric, err
	}
	r := native.call(global.syms.getLastError)
	return ErrorCode(int32(uint32(r))), nil
}

// FetchLastErrorMessage reads and releases the native error message. A NULL
// message yields the empty string.
func FetchLastErrorMessage() (string, error) {
	if err := global.ensure(); err != nil {
		return "", err
	}
	r := native.call(global.syms.getLastErrorMessage)
	if r == 0 {
		return "", nil
	}
	msg := goBytes(r)
	native.free(r)
	return string(msg), nil
}
