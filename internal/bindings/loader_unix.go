//go:build darwin || linux

package bindings

import (
	"sync"

	"github.com/ebitengine/purego"
)

func dlOpen(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
}

func dlSym(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func dlClose(handle uintptr) error {
	return purego.Dlclose(handle)
}

func dlCall(fn uintptr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(fn, args...)
	return r1
}

var (
	freeOnce sync.Once
	freeAddr uintptr
)

// stdFree releases a buffer the native side allocated with the C allocator.
// The symbol is resolved once from the default loader namespace.
func stdFree(ptr uintptr) {
	if ptr == 0 {
		return
	}
	freeOnce.Do(func() {
		freeAddr, _ = purego.Dlsym(purego.RTLD_DEFAULT, "free")
	})
	if freeAddr == 0 {
		return
	}
	purego.SyscallN(freeAddr, ptr)
}
