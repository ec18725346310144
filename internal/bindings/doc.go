// Package bindings loads the native keychain library at runtime and exposes
// typed wrappers over its five C entry points.
//
// # Design Principles
//
// 1. Isolation: ALL foreign-boundary code lives in this package. No other
//    package touches the dynamic loader, raw symbol addresses, or native
//    buffers.
//
// 2. Exactly-once loading: the library is resolved, opened and bound lazily
//    on first use, under double-checked locking. A failed load is sticky;
//    it is reported to every later caller and never retried behind their
//    backs.
//
// 3. All-or-nothing symbol table: either all five entry points resolve or
//    the load is rejected and the half-opened library released. A partial
//    table is never observable.
//
// 4. Ownership discipline: input buffers are allocated on this side and kept
//    alive for the duration of one call; output buffers arrive owned by us
//    and are copied out and released before the wrapper returns, on success
//    and failure paths alike.
//
// 5. The native "last error" slot is process-global. Callers that need a
//    failure's precise cause must pair the failing call and the snapshot
//    read in one critical section; pkg/keychain does exactly that.
package bindings
