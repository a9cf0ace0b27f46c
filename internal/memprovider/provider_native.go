package memprovider

import (
	"sync"
	"unsafe"
)

// nativeBackend is the last-resort fallback: memory drawn from Go's own
// heap rather than a true OS mapping, grounded on the teacher's
// systemAlloc/SystemAllocatorImpl.allocatedSlices pattern in
// internal/allocator/allocator.go. Because this memory is subject to
// Go's GC, every live []byte is rooted in `slices` for as long as it is
// in use — the region never holds anything but the uintptr address, so
// without this map the backing array would be collectable.
type nativeBackend struct {
	mu     sync.Mutex
	slices map[uintptr][]byte
}

func newNativeBackend() *nativeBackend {
	return &nativeBackend{slices: make(map[uintptr][]byte)}
}

func (b *nativeBackend) Name() string { return "native" }

func (b *nativeBackend) Grow(n uintptr) (Segment, error) {
	data := make([]byte, n)
	base := addrOf(data)

	b.mu.Lock()
	b.slices[base] = data
	b.mu.Unlock()

	return Segment{Data: data, Base: base}, nil
}

// Resize never extends in place: Go provides no primitive for growing a
// slice's backing array without relocating it, so this always reports
// ok=false and the caller grows a fresh segment instead. This is the
// same "provider refused to extend" outcome spec.md §6 expects a
// backend to be free to produce.
func (b *nativeBackend) Resize(Segment, uintptr) (Segment, bool) {
	return Segment{}, false
}

// Shrink cannot truly release Go heap memory back to the OS; it only
// drops the rooting reference so the GC may eventually reclaim it once
// nothing else in the region still points at it (which never happens
// while blocks inside it are tracked, matching the original's note that
// program-break/native-malloc backends can allocate but not shrink).
func (b *nativeBackend) Shrink(seg Segment) error {
	b.mu.Lock()
	delete(b.slices, seg.Base)
	b.mu.Unlock()
	return nil
}

// OpenNative returns a Provider backed by the native Go-heap fallback
// regardless of platform, bypassing the semver-gated preference order.
// Tests reach for this instead of Open so they get a deterministic
// backend rather than whatever OS facility the host happens to offer.
func OpenNative() Provider {
	b := newNativeBackend()
	return Provider{Backend: b, ProbeAddressable: func(uintptr, uintptr) bool { return true }}
}

func addrOf(data []byte) uintptr {
	if len(data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&data[0]))
}
