package allocator

import (
	"sync/atomic"
	"unsafe"

	"github.com/orizon-lang/vmheap/internal/heap"
	"github.com/orizon-lang/vmheap/internal/heapconfig"
	"github.com/orizon-lang/vmheap/internal/memprovider"
)

// BestFitAllocatorImpl backs the Allocator interface with the splay-tree
// best-fit engine in internal/heap, the discipline vmalloc's Vmbest
// method uses: an exact-size free tree plus a deferred reclaim cache.
type BestFitAllocatorImpl struct {
	region     *heap.Region
	config     *Config
	allocCount uint64
	freeCount  uint64
}

// NewBestFitAllocator opens a raw-memory provider per config and wraps
// a heap.Region in the Allocator interface.
func NewBestFitAllocator(config *Config) (*BestFitAllocatorImpl, error) {
	prov, err := memprovider.Open(">=0.0.0")
	if err != nil {
		return nil, err
	}

	opts := []heapconfig.Option{
		heapconfig.WithGranularity(config.ArenaSize),
		heapconfig.WithDebugCheck(config.EnableDebug),
	}

	region := heap.NewRegion(prov, opts...)

	return &BestFitAllocatorImpl{region: region, config: config}, nil
}

func (ba *BestFitAllocatorImpl) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	addr := ba.region.Alloc(size)
	if addr == 0 {
		return nil
	}
	atomic.AddUint64(&ba.allocCount, 1)
	return unsafe.Pointer(addr) //nolint:govet // raw provider-backed address, not GC-managed
}

func (ba *BestFitAllocatorImpl) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	ba.region.Free(uintptr(ptr))
	atomic.AddUint64(&ba.freeCount, 1)
}

func (ba *BestFitAllocatorImpl) Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	addr := ba.region.Resize(uintptr(ptr), newSize, heap.Move|heap.Copy)
	if addr == 0 {
		return nil
	}
	if ptr == nil {
		atomic.AddUint64(&ba.allocCount, 1)
	}
	return unsafe.Pointer(addr) //nolint:govet
}

func (ba *BestFitAllocatorImpl) TotalAllocated() uintptr {
	return uintptr(atomic.LoadUint64(&ba.allocCount))
}

func (ba *BestFitAllocatorImpl) TotalFreed() uintptr {
	return uintptr(atomic.LoadUint64(&ba.freeCount))
}

func (ba *BestFitAllocatorImpl) ActiveAllocations() int {
	return int(atomic.LoadUint64(&ba.allocCount) - atomic.LoadUint64(&ba.freeCount))
}

func (ba *BestFitAllocatorImpl) Stats() AllocatorStats {
	allocs := atomic.LoadUint64(&ba.allocCount)
	frees := atomic.LoadUint64(&ba.freeCount)

	return AllocatorStats{
		ActiveAllocations: int(allocs - frees),
		AllocationCount:   allocs,
		FreeCount:         frees,
	}
}

// Reset is unsupported: a best-fit region holds live cross-referenced
// blocks that can't be dropped in bulk the way an arena's bump pointer
// can be rewound.
func (ba *BestFitAllocatorImpl) Reset() {}

// Compact runs the region's compactor, releasing segments the
// allocator no longer needs back to the raw-memory provider.
func (ba *BestFitAllocatorImpl) Compact() {
	ba.region.Compact()
}

// Close releases the config watcher, if any, and — when EnableLeakCheck
// is set and allocations remain outstanding — records a leak error on
// the region via NoteLeak, readable through the region's LastError.
func (ba *BestFitAllocatorImpl) Close() {
	if ba.config.EnableLeakCheck {
		if n := ba.ActiveAllocations(); n > 0 {
			ba.region.NoteLeak(n)
		}
	}
	ba.region.Close()
}
