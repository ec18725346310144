package bindings

import (
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installFake(t *testing.T) *FakeNative {
	t.Helper()
	f := NewFakeNative()
	restore := InstallFake(f)
	t.Cleanup(restore)
	return f
}

func TestEnsureInitializedConcurrentLoadsOnce(t *testing.T) {
	f := installFake(t)
	require.NoError(t, SetLibraryPath("libfake.so"))

	const workers = 32
	var wg sync.WaitGroup
	errs := make([]error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = EnsureInitialized()
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, 1, f.Loads(), "concurrent first-callers must not race to load twice")
	assert.Equal(t, 1, f.OpenAttempts())
	assert.Equal(t, StateInitialized, CurrentState())
}

func TestInitializationFailureIsSticky(t *testing.T) {
	f := installFake(t)
	f.OpenErr = errors.New("invalid ELF header")
	require.NoError(t, SetLibraryPath("libfake.so"))

	_, err := InvokeSetPassword([]byte("p"), []byte("s"), []byte("u"), []byte("pw"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLibraryLoad)

	_, _, err2 := InvokeGetPassword([]byte("p"), []byte("s"), []byte("u"))
	require.Error(t, err2)
	assert.ErrorIs(t, err2, ErrLibraryLoad)
	assert.Equal(t, err, err2, "the original cause is remembered, not recomputed")

	assert.Equal(t, 1, f.OpenAttempts(), "a failed load is never retried")
	assert.Equal(t, StateFailed, CurrentState())
}

func TestMissingSymbolFailsWholeLoad(t *testing.T) {
	f := installFake(t)
	f.MissingSymbol = symDeletePassword
	require.NoError(t, SetLibraryPath("libfake.so"))

	err := EnsureInitialized()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLibraryLoad)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, symDeletePassword, lerr.Symbol)

	assert.Equal(t, 1, f.Closed(), "a partially bound library must be released")
	assert.Equal(t, StateFailed, CurrentState())
}

func TestSetLibraryPathAfterInitialization(t *testing.T) {
	installFake(t)
	require.NoError(t, SetLibraryPath("libfake.so"))
	require.NoError(t, EnsureInitialized())

	err := SetLibraryPath("/elsewhere/libkeychain.so")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSetLibraryPathAfterFailedInitialization(t *testing.T) {
	f := installFake(t)
	f.OpenErr = errors.New("nope")
	require.NoError(t, SetLibraryPath("libfake.so"))
	require.Error(t, EnsureInitialized())

	err := SetLibraryPath("/elsewhere/libkeychain.so")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUnloadResetsLifecycle(t *testing.T) {
	f := installFake(t)
	require.NoError(t, SetLibraryPath("libfake.so"))
	require.NoError(t, EnsureInitialized())

	require.NoError(t, Unload())
	assert.Equal(t, StateUninitialized, CurrentState())
	assert.Equal(t, 1, f.Closed())

	require.NoError(t, SetLibraryPath("libfake2.so"))
	_, err := InvokeSetPassword([]byte("p"), []byte("s"), []byte("u"), []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Loads(), "an operation after unload re-triggers the full load")
	assert.Equal(t, "libfake2.so", f.LastOpen())
}

func TestUnloadWithoutInitializationIsNoOp(t *testing.T) {
	f := installFake(t)
	require.NoError(t, Unload())
	assert.Equal(t, 0, f.Closed())
	assert.Equal(t, StateUninitialized, CurrentState())
}

func TestNilCrossesAsNullNotEmpty(t *testing.T) {
	f := installFake(t)
	require.NoError(t, SetLibraryPath("libfake.so"))

	ok, err := InvokeSetPassword([]byte("p"), []byte("s"), nil, []byte{})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, [4]bool{false, false, true, false}, f.SawNull,
		"nil must cross as NULL, a non-nil empty buffer as an encoded empty string")
}

func TestGetPasswordCopiesAndReleasesNativeBuffer(t *testing.T) {
	f := installFake(t)
	require.NoError(t, SetLibraryPath("libfake.so"))

	_, err := InvokeSetPassword([]byte("p"), []byte("s"), []byte("u"), []byte("secret"))
	require.NoError(t, err)

	secret, found, err := InvokeGetPassword([]byte("p"), []byte("s"), []byte("u"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "secret", string(secret))
	assert.Equal(t, 1, f.Freed(), "the returned buffer's ownership transfers to us; release it")
}

func TestGetPasswordMissingReportsViaErrorSlot(t *testing.T) {
	installFake(t)
	require.NoError(t, SetLibraryPath("libfake.so"))

	_, found, err := InvokeGetPassword([]byte("p"), []byte("s"), []byte("nobody"))
	require.NoError(t, err)
	require.False(t, found)

	code, err := FetchLastError()
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, code)

	msg, err := FetchLastErrorMessage()
	require.NoError(t, err)
	assert.Contains(t, msg, "could not be found")
}

func TestUnsupportedPlatformFailsBeforeAnyLoad(t *testing.T) {
	f := installFake(t)

	l := newLibrary()
	l.goos = "plan9"
	l.goarch = "amd64"

	err := l.ensure()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Equal(t, 0, f.OpenAttempts(), "no load may be attempted for an unknown platform")
	assert.Equal(t, StateFailed, State(l.state.Load()))
}

func TestAutoResolutionFallsBackToDefaultLoader(t *testing.T) {
	if _, err := runtimeIdentifier(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skipf("no runtime identifier for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	f := installFake(t)

	// No override and no packaged library on disk: the bare soname goes to
	// the default loader search.
	require.NoError(t, EnsureInitialized())
	assert.Equal(t, libraryFileName(runtime.GOOS), f.LastOpen())
}

func TestAutoResolutionNotFoundListsAttempts(t *testing.T) {
	if _, err := runtimeIdentifier(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skipf("no runtime identifier for %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	f := installFake(t)
	f.OpenErr = errors.New("not found")

	err := EnsureInitialized()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLibraryNotFound)

	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	rid, _ := runtimeIdentifier(runtime.GOOS, runtime.GOARCH)
	assert.Len(t, nerr.Attempted, 7, "six candidate paths plus the bare soname")
	assert.Contains(t, nerr.Attempted[0], rid)
}
