//go:build windows

package bindings

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

func dlOpen(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func dlSym(handle uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(handle), name)
}

func dlClose(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}

func dlCall(fn uintptr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(fn, args...)
	return r1
}

// The native library allocates its output buffers with the msvcrt malloc;
// release them with the matching free.
var msvcrtFree = windows.NewLazySystemDLL("msvcrt.dll").NewProc("free")

func stdFree(ptr uintptr) {
	if ptr == 0 {
		return
	}
	if err := msvcrtFree.Find(); err != nil {
		return
	}
	purego.SyscallN(msvcrtFree.Addr(), ptr)
}
