// Package keychain reads, writes and deletes credentials in the
// platform-native secret store (macOS Keychain, Windows Credential Manager,
// libsecret) through a dynamically loaded native library.
//
// The library is located and loaded lazily on first use; SetLibraryPath can
// pin an explicit location beforehand for environments where auto-resolution
// is unreliable, and Unload tears the binding down again.
//
// Operations may block indefinitely: the underlying store is free to prompt
// the user to unlock a keychain or approve access, and no timeout or
// cancellation is available at this layer. Do not call this package from a
// latency-sensitive goroutine without isolating it.
//
// The native "last error" channel is a single process-global slot. This
// package serializes its own operations so every failure is paired with its
// own error snapshot, but it cannot extend that guarantee to other code in
// the process calling the same native library directly.
package keychain
