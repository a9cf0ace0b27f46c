//go:build windows

package memprovider

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// osAllocBackend is the OS-allocation preference, first in spec.md §6's
// order, grounded on vmbest.c's win32mem discipline and on the teacher's
// golang.org/x/sys/windows usage style in
// internal/runtime/asyncio/*_windows.go.
type osAllocBackend struct{}

func (osAllocBackend) Name() string { return "virtualalloc" }

func (osAllocBackend) Grow(n uintptr) (Segment, error) {
	addr, err := windows.VirtualAlloc(0, n, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return Segment{}, fmt.Errorf("virtualalloc: %w", err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
	return Segment{Data: data, Base: addr}, nil
}

// Resize is unsupported: VirtualAlloc has no in-place grow, and
// VirtualFree cannot partially decommit the middle of a mapping the way
// Region.compact wants. The caller always falls back to Grow-and-copy.
func (osAllocBackend) Resize(Segment, uintptr) (Segment, bool) {
	return Segment{}, false
}

func (osAllocBackend) Shrink(seg Segment) error {
	return windows.VirtualFree(seg.Base, 0, windows.MEM_RELEASE)
}

func buildPreference() []candidate {
	return []candidate{
		{
			build:   func() (Backend, error) { return osAllocBackend{}, nil },
			version: "2.0.0",
		},
		{
			build:   func() (Backend, error) { return newNativeBackend(), nil },
			version: "0.1.0",
		},
	}
}

func probeFor(Backend) func(uintptr, uintptr) bool {
	return func(uintptr, uintptr) bool { return true }
}
