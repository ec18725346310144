package bindings

import "unsafe"

// cBuffer copies text into a NUL-terminated buffer to cross the foreign
// boundary for the duration of one call. A nil input crosses as a NULL
// pointer: "no value", not "empty value". A non-nil empty input crosses as
// an encoded empty string.
func cBuffer(b []byte) *byte {
	if b == nil {
		return nil
	}
	buf := make([]byte, len(b)+1)
	copy(buf, b)
	return &buf[0]
}

func bufArg(p *byte) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// goBytes copies a NUL-terminated native buffer into Go memory. A NULL
// pointer yields nil rather than a crash; releasing the native buffer stays
// the caller's job.
func goBytes(p uintptr) []byte {
	if p == 0 {
		return nil
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
	return out
}
