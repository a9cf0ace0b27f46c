package allocator

import (
	"testing"
	"unsafe"
)

// TestBestFitAllocator exercises the Allocator interface surface backed
// by internal/heap's splay-tree region engine.
func TestBestFitAllocator(t *testing.T) {
	config := defaultConfig()
	config.ArenaSize = 64 * 1024

	allocator, err := NewBestFitAllocator(config)
	if err != nil {
		t.Fatalf("NewBestFitAllocator failed: %v", err)
	}
	defer allocator.Close()

	t.Run("BasicAllocation", func(t *testing.T) {
		ptr := allocator.Alloc(1024)
		if ptr == nil {
			t.Fatal("Allocation failed")
		}

		data := (*[1024]byte)(ptr)
		for i := 0; i < 1024; i++ {
			data[i] = byte(i % 256)
		}

		for i := 0; i < 1024; i++ {
			if data[i] != byte(i%256) {
				t.Errorf("Data corruption at index %d", i)
			}
		}

		allocator.Free(ptr)
	})

	t.Run("ZeroAllocation", func(t *testing.T) {
		ptr := allocator.Alloc(0)
		if ptr != nil {
			t.Error("Zero allocation should return nil")
		}
	})

	t.Run("Reallocation", func(t *testing.T) {
		ptr := allocator.Alloc(512)
		if ptr == nil {
			t.Fatal("Initial allocation failed")
		}

		data := (*[512]byte)(ptr)
		for i := 0; i < 512; i++ {
			data[i] = byte(i % 256)
		}

		newPtr := allocator.Realloc(ptr, 1024)
		if newPtr == nil {
			t.Fatal("Reallocation failed")
		}

		newData := (*[1024]byte)(newPtr)
		for i := 0; i < 512; i++ {
			if newData[i] != byte(i%256) {
				t.Errorf("Data corruption after realloc at index %d", i)
			}
		}

		allocator.Free(newPtr)
	})

	t.Run("Statistics", func(t *testing.T) {
		initialStats := allocator.Stats()

		ptrs := make([]unsafe.Pointer, 10)
		for i := range ptrs {
			ptrs[i] = allocator.Alloc(128)
			if ptrs[i] == nil {
				t.Fatalf("Allocation %d failed", i)
			}
		}

		midStats := allocator.Stats()
		if midStats.AllocationCount <= initialStats.AllocationCount {
			t.Error("Allocation count not updated")
		}

		for _, ptr := range ptrs {
			allocator.Free(ptr)
		}

		finalStats := allocator.Stats()
		if finalStats.FreeCount <= midStats.FreeCount {
			t.Error("Free count not updated")
		}
	})

	t.Run("Compact", func(t *testing.T) {
		// Compact must be safe to call with live allocations outstanding.
		ptr := allocator.Alloc(256)
		allocator.Compact()
		allocator.Free(ptr)
		allocator.Compact()
	})
}

// BenchmarkBestFitAllocator exercises the allocate/free fast path under
// concurrent load.
func BenchmarkBestFitAllocator(b *testing.B) {
	config := defaultConfig()
	allocator, err := NewBestFitAllocator(config)
	if err != nil {
		b.Fatalf("NewBestFitAllocator failed: %v", err)
	}
	defer allocator.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			ptr := allocator.Alloc(256)
			if ptr != nil {
				allocator.Free(ptr)
			}
		}
	})
}

// TestInitialization tests global allocator initialization.
func TestInitialization(t *testing.T) {
	t.Run("BestFitAllocatorInit", func(t *testing.T) {
		err := Initialize(BestFitAllocatorKind, WithArenaSize(64*1024))
		if err != nil {
			t.Errorf("Best-fit allocator initialization failed: %v", err)
		}

		if GlobalAllocator == nil {
			t.Error("Global allocator not set")
		}

		ptr := GlobalAllocator.Alloc(128)
		if ptr == nil {
			t.Fatal("Alloc returned nil")
		}
		GlobalAllocator.Free(ptr)
	})

	t.Run("InvalidAllocatorKind", func(t *testing.T) {
		err := Initialize(AllocatorKind(999))
		if err == nil {
			t.Error("Invalid allocator kind should return error")
		}
	})
}

// TestGlobalConvenienceFunctions exercises the package-level Alloc/Free/
// Realloc/GetStats front door.
func TestGlobalConvenienceFunctions(t *testing.T) {
	if err := Initialize(BestFitAllocatorKind, WithArenaSize(64*1024)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	ptr := Alloc(64)
	if ptr == nil {
		t.Fatal("Alloc returned nil")
	}

	ptr = Realloc(ptr, 128)
	if ptr == nil {
		t.Fatal("Realloc returned nil")
	}

	Free(ptr)

	stats := GetStats()
	if stats.AllocationCount == 0 {
		t.Error("Expected non-zero allocation count")
	}
}
