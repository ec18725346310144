package bindings

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// FakeNative is an in-memory stand-in for the OS loader and the native
// secret store. Tests install it with InstallFake and drive the full binding
// lifecycle — load counting, symbol resolution, credential storage, the
// last-error slot — without a real shared library.
type FakeNative struct {
	// OpenErr makes every load attempt fail.
	OpenErr error
	// MissingSymbol makes resolution of that entry point fail.
	MissingSymbol string
	// DenySet makes setPassword report an access-denied failure.
	DenySet bool
	// NilMessage makes getLastErrorMessage return NULL.
	NilMessage bool

	// SawNull records, per setPassword argument, whether the most recent
	// call received a NULL pointer rather than an encoded empty string.
	SawNull [4]bool

	attempts atomic.Int32
	opens    atomic.Int32
	closes   atomic.Int32
	frees    atomic.Int32

	mu       sync.Mutex
	lastOpen string
	creds    map[fakeKey]string
	lastCode ErrorCode
	lastMsg  string
	pins     [][]byte
}

type fakeKey struct{ pkg, service, user string }

const (
	fakeHandle uintptr = 0x5ec2e7

	fakeSetPassword uintptr = iota
	fakeGetPassword
	fakeDeletePassword
	fakeGetLastErrorMessage
	fakeGetLastError
)

func NewFakeNative() *FakeNative {
	return &FakeNative{creds: make(map[fakeKey]string)}
}

// InstallFake wires f in as the process loader and resets the binding state.
// The returned restore function reinstates the real loader and a fresh,
// uninitialized state.
func InstallFake(f *FakeNative) (restore func()) {
	prevNative := native
	prevGlobal := global
	native = nativeAPI{open: f.open, sym: f.sym, close: f.close, call: f.call, free: f.free}
	global = newLibrary()
	return func() {
		native = prevNative
		global = prevGlobal
	}
}

// OpenAttempts counts every load attempt, successful or not.
func (f *FakeNative) OpenAttempts() int { return int(f.attempts.Load()) }

// Loads counts successful library loads.
func (f *FakeNative) Loads() int { return int(f.opens.Load()) }

// Closed counts handle releases.
func (f *FakeNative) Closed() int { return int(f.closes.Load()) }

// Freed counts native buffers released by the binding layer.
func (f *FakeNative) Freed() int { return int(f.frees.Load()) }

// LastOpen reports the path of the most recent load attempt.
func (f *FakeNative) LastOpen() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpen
}

func (f *FakeNative) open(path string) (uintptr, error) {
	f.attempts.Add(1)
	f.mu.Lock()
	f.lastOpen = path
	f.mu.Unlock()
	if f.OpenErr != nil {
		return 0, f.OpenErr
	}
	f.opens.Add(1)
	return fakeHandle, nil
}

func (f *FakeNative) sym(handle uintptr, name string) (uintptr, error) {
	if handle != fakeHandle {
		return 0, fmt.Errorf("unknown handle %#x", handle)
	}
	if name == f.MissingSymbol {
		return 0, fmt.Errorf("undefined symbol: %s", name)
	}
	switch name {
	case symSetPassword:
		return fakeSetPassword, nil
	case symGetPassword:
		return fakeGetPassword, nil
	case symDeletePassword:
		return fakeDeletePassword, nil
	case symGetLastErrorMessage:
		return fakeGetLastErrorMessage, nil
	case symGetLastError:
		return fakeGetLastError, nil
	default:
		return 0, fmt.Errorf("undefined symbol: %s", name)
	}
}

func (f *FakeNative) close(handle uintptr) error {
	f.closes.Add(1)
	return nil
}

func (f *FakeNative) free(ptr uintptr) {
	if ptr != 0 {
		f.frees.Add(1)
	}
}

func (f *FakeNative) call(fn uintptr, args ...uintptr) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch fn {
	case fakeSetPassword:
		for i, a := range args {
			f.SawNull[i] = a == 0
		}
		if f.DenySet {
			f.lastCode = CodeAccessDenied
			f.lastMsg = "Access to the keychain was denied"
			return 0
		}
		key := fakeKey{arg(args[0]), arg(args[1]), arg(args[2])}
		f.creds[key] = arg(args[3])
		return 1
	case fakeGetPassword:
		key := fakeKey{arg(args[0]), arg(args[1]), arg(args[2])}
		secret, ok := f.creds[key]
		if !ok {
			f.lastCode = CodeNotFound
			f.lastMsg = "The specified item could not be found in the keychain"
			return 0
		}
		return f.pin(secret)
	case fakeDeletePassword:
		key := fakeKey{arg(args[0]), arg(args[1]), arg(args[2])}
		if _, ok := f.creds[key]; !ok {
			f.lastCode = CodeNotFound
			f.lastMsg = "The specified item could not be found in the keychain"
			return 0
		}
		delete(f.creds, key)
		return 1
	case fakeGetLastErrorMessage:
		if f.NilMessage || f.lastMsg == "" {
			return 0
		}
		return f.pin(f.lastMsg)
	case fakeGetLastError:
		return uintptr(uint32(int32(f.lastCode)))
	default:
		panic(fmt.Sprintf("fake native: call to unknown symbol %#x", fn))
	}
}

// pin hands out a NUL-terminated buffer that stays reachable until the fake
// itself is dropped, mimicking a native allocation the caller must release.
func (f *FakeNative) pin(s string) uintptr {
	buf := append([]byte(s), 0)
	f.pins = append(f.pins, buf)
	return uintptr(unsafe.Pointer(&buf[0]))
}

func arg(p uintptr) string {
	return string(goBytes(p))
}
