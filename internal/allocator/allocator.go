// Package allocator provides the Allocator interface the rest of this
// module's callers code against, backed by the splay-tree best-fit
// region engine in internal/heap.
package allocator

import (
	"fmt"
	"unsafe"
)

// AllocatorKind selects which Allocator implementation Initialize
// constructs. It is kept as a dispatchable enum, matching the teacher's
// Initialize(kind, opts...) shape, even though BestFitAllocatorKind is
// presently the only discipline this repo implements: spec.md §1's
// Non-goals explicitly scope out the alternative allocation methods
// (debug/pool/profile) the teacher's other Allocator implementations
// modeled, so they were trimmed rather than kept as unexercised
// surface (see DESIGN.md).
type AllocatorKind int

const (
	BestFitAllocatorKind AllocatorKind = iota
)

// Allocator defines the interface for memory allocators.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(ptr unsafe.Pointer)
	Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer
	TotalAllocated() uintptr
	TotalFreed() uintptr
	ActiveAllocations() int
	Stats() AllocatorStats
	Reset()
}

// AllocatorStats provides allocation statistics.
type AllocatorStats struct {
	TotalAllocated    uintptr
	TotalFreed        uintptr
	ActiveAllocations int
	PeakAllocations   int
	AllocationCount   uint64
	FreeCount         uint64
	BytesInUse        uintptr
	SystemMemory      uintptr
}

// GlobalAllocator provides the default allocator for callers that don't
// want to hold their own Region.
var GlobalAllocator Allocator

// Initialize sets up the global allocator.
func Initialize(kind AllocatorKind, options ...Option) error {
	config := defaultConfig()
	for _, opt := range options {
		opt(config)
	}

	switch kind {
	case BestFitAllocatorKind:
		allocator, err := NewBestFitAllocator(config)
		if err != nil {
			return fmt.Errorf("failed to create best-fit allocator: %w", err)
		}

		GlobalAllocator = allocator
	default:
		return fmt.Errorf("unknown allocator kind: %v", kind)
	}

	return nil
}

// Config collects the tunables Initialize and NewBestFitAllocator need.
type Config struct {
	ArenaSize       uintptr
	EnableLeakCheck bool
	EnableDebug     bool
}

type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		ArenaSize:       64 * 1024 * 1024, // 64MB default arena
		EnableLeakCheck: true,
	}
}

// Option functions.
func WithArenaSize(size uintptr) Option {
	return func(c *Config) { c.ArenaSize = size }
}

func WithLeakCheck(enabled bool) Option {
	return func(c *Config) { c.EnableLeakCheck = enabled }
}

func WithDebug(enabled bool) Option {
	return func(c *Config) { c.EnableDebug = enabled }
}

// Global allocation functions for convenience.

// Alloc allocates memory using the global allocator.
func Alloc(size uintptr) unsafe.Pointer {
	if GlobalAllocator == nil {
		panic("Global allocator not initialized")
	}

	return GlobalAllocator.Alloc(size)
}

// Free frees memory using the global allocator.
func Free(ptr unsafe.Pointer) {
	if GlobalAllocator == nil {
		panic("Global allocator not initialized")
	}

	GlobalAllocator.Free(ptr)
}

// Realloc reallocates memory using the global allocator.
func Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	if GlobalAllocator == nil {
		panic("Global allocator not initialized")
	}

	return GlobalAllocator.Realloc(ptr, newSize)
}

// GetStats returns global allocator statistics.
func GetStats() AllocatorStats {
	if GlobalAllocator == nil {
		return AllocatorStats{}
	}

	return GlobalAllocator.Stats()
}
