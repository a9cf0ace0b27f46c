// Package memprovider implements the raw-memory provider abstraction
// spec.md §6 describes as an out-of-scope collaborator: a single
// capability through which a Region obtains, grows, shrinks and
// releases contiguous address ranges. Each backend is selected once
// per Region, in a fixed preference order, the way the original
// chooses between its Vmdcsbrk/Vmdcmmap/Vmdcmalloc discipline tables.
package memprovider

import "errors"

// ErrUnsupported is returned by a Backend method the backend cannot
// perform (e.g. in-place Resize on a backend that can only Grow/Shrink).
var ErrUnsupported = errors.New("memprovider: operation unsupported by this backend")

// Segment is a single contiguous byte range obtained from a Backend.
// Base is the address of Data's first byte — Data and Base always agree
// (Go guarantees a slice's backing array doesn't move once allocated,
// which is what lets a blockRef keep storing absolute addresses).
type Segment struct {
	Data []byte
	Base uintptr
}

// Backend is one raw-memory discipline: OS virtual-memory allocation,
// anonymous mmap, /dev/zero-backed mmap, or the Go-heap fallback (there
// is no program-break backend). Exactly one of the four request shapes in spec.md §6
// applies per call:
//
//	Grow(0, n)        — obtain a brand new range of n bytes
//	Resize(seg, n>len) — extend seg in place; ok=false means "can't, Grow a new one"
//	Resize(seg, n<len) — shrink seg in place, returning the narrowed range
//	Shrink(seg)        — release seg back to the OS entirely
type Backend interface {
	Name() string

	// Grow obtains a brand new range of at least n bytes.
	Grow(n uintptr) (Segment, error)

	// Resize adjusts seg in place. ok is false when the backend cannot
	// resize without relocating, in which case the caller must Grow a
	// replacement and copy live data itself.
	Resize(seg Segment, newSize uintptr) (resized Segment, ok bool)

	// Shrink releases seg back to the OS. Backends that can't truly
	// release memory (the native fallback) implement this as a no-op.
	Shrink(seg Segment) error
}

// Provider is the handle a Region holds: the selected backend plus the
// capability-probe helpers spec.md §6/§15 describes.
type Provider struct {
	Backend Backend

	// ProbeAddressable reports whether every byte of [base, base+size)
	// is safely readable. nil means the backend offers no better
	// answer than "assume yes, since Grow/Resize succeeded."
	ProbeAddressable func(base uintptr, size uintptr) bool
}

// Probe reports addressability via ProbeAddressable, defaulting to true
// when the backend doesn't supply one (spec.md §15).
func (p Provider) Probe(base, size uintptr) bool {
	if p.ProbeAddressable == nil {
		return true
	}
	return p.ProbeAddressable(base, size)
}
