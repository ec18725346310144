//go:build !darwin && !linux && !windows

package bindings

import "errors"

// Stubs for platforms without a native library variant. Loading always
// fails; runtimeIdentifier rejects these platforms first anyway.

var errNoLoader = errors.New("dynamic loading not supported on this platform")

func dlOpen(path string) (uintptr, error) { return 0, errNoLoader }

func dlSym(handle uintptr, name string) (uintptr, error) { return 0, errNoLoader }

func dlClose(handle uintptr) error { return nil }

func dlCall(fn uintptr, args ...uintptr) uintptr { return 0 }

func stdFree(ptr uintptr) {}
