package heap

import (
	"testing"
	"unsafe"

	"github.com/orizon-lang/vmheap/internal/heapconfig"
	"github.com/orizon-lang/vmheap/internal/memprovider"
)

func newTestRegion(opts ...heapconfig.Option) *Region {
	opts = append([]heapconfig.Option{heapconfig.WithGranularity(4096)}, opts...)
	return NewRegion(memprovider.OpenNative(), opts...)
}

func addrToPtr(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr) //nolint:govet // test-only raw address dereference
}

func TestAllocFree(t *testing.T) {
	r := newTestRegion()

	t.Run("BasicRoundTrip", func(t *testing.T) {
		addr := r.Alloc(128)
		if addr == 0 {
			t.Fatal("alloc failed")
		}
		if r.AddressCheck(addr) != 0 {
			t.Error("address-check rejected a live allocation")
		}
		if r.SizeOf(addr) < 128 {
			t.Errorf("size-of reported %d, want >= 128", r.SizeOf(addr))
		}
		r.Free(addr)
		if r.AddressCheck(addr) != -1 {
			t.Error("address-check accepted a freed address")
		}
	})

	t.Run("ZeroSizeRoundsUpToMinimum", func(t *testing.T) {
		addr := r.Alloc(0)
		if addr == 0 {
			t.Fatal("alloc(0) should still return a usable block")
		}
		r.Free(addr)
	})

	t.Run("UnknownAddressChecks", func(t *testing.T) {
		if r.AddressCheck(0) != -1 {
			t.Error("address-check should reject a nil address")
		}
		if r.SizeOf(0) != -1 {
			t.Error("size-of should reject a nil address")
		}
	})

	t.Run("DoubleFreeIsTolerated", func(t *testing.T) {
		addr := r.Alloc(64)
		r.Free(addr)
		r.Free(addr) // must not panic
		if r.LastError() == nil {
			t.Error("expected a recorded error after a double free")
		}
	})
}

func TestAllocManySizesThenCheck(t *testing.T) {
	r := newTestRegion()

	sizes := []uintptr{8, 24, 64, 152, 153, 512, 4096, 9000}
	var addrs []uintptr
	for _, s := range sizes {
		addr := r.Alloc(s)
		if addr == 0 {
			t.Fatalf("alloc(%d) failed", s)
		}
		addrs = append(addrs, addr)
	}

	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after allocating: %v", err)
	}

	for i, addr := range addrs {
		if i%2 == 0 {
			r.Free(addr)
		}
	}

	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after freeing every other block: %v", err)
	}
}

func TestReclaimCoalescesNeighbors(t *testing.T) {
	r := newTestRegion()

	a := r.Alloc(256)
	b := r.Alloc(256)
	c := r.Alloc(256)
	if a == 0 || b == 0 || c == 0 {
		t.Fatal("setup allocation failed")
	}

	r.Free(a)
	r.Free(b)
	r.Free(c)

	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after freeing adjacent blocks: %v", err)
	}

	// A big enough allocation should be satisfiable by the coalesced
	// run of a, b and c without growing a new segment.
	big := r.Alloc(700)
	if big == 0 {
		t.Fatal("coalesced free space should satisfy a larger request")
	}
}

func TestResize(t *testing.T) {
	r := newTestRegion()

	t.Run("NilAddrBehavesLikeAlloc", func(t *testing.T) {
		addr := r.Resize(0, 64, 0)
		if addr == 0 {
			t.Fatal("resize(nil, 64) should allocate")
		}
		r.Free(addr)
	})

	t.Run("ZeroSizeBehavesLikeFree", func(t *testing.T) {
		addr := r.Alloc(64)
		if r.Resize(addr, 0, 0) != 0 {
			t.Error("resize(addr, 0) should return 0")
		}
		if r.AddressCheck(addr) != -1 {
			t.Error("resize(addr, 0) should have freed addr")
		}
	})

	t.Run("ShrinkInPlace", func(t *testing.T) {
		addr := r.Alloc(512)
		for i := uintptr(0); i < 512; i++ {
			*(*byte)(addrToPtr(addr + i)) = byte(i)
		}
		shrunk := r.Resize(addr, 32, 0)
		if shrunk != addr {
			t.Fatalf("shrinking in place should keep the same address, got %#x want %#x", shrunk, addr)
		}
		for i := uintptr(0); i < 32; i++ {
			if *(*byte)(addrToPtr(shrunk + i)) != byte(i) {
				t.Fatalf("data corrupted at offset %d after shrink", i)
			}
		}
		r.Free(shrunk)
	})

	t.Run("GrowForwardMerge", func(t *testing.T) {
		a := r.Alloc(128)
		b := r.Alloc(128)
		r.Free(b)

		grown := r.Resize(a, 200, Move|Copy)
		if grown == 0 {
			t.Fatal("grow should succeed by absorbing the freed neighbor or moving")
		}
		r.Free(grown)
	})

	t.Run("MoveWhenNoRoom", func(t *testing.T) {
		a := r.Alloc(64)
		grown := r.Resize(a, 4096, Move|Copy)
		if grown == 0 {
			t.Fatal("resize with MOVE set should never fail unless truly out of memory")
		}
		r.Free(grown)
	})

	t.Run("RefusesToMoveWithoutFlag", func(t *testing.T) {
		a := r.Alloc(8)
		b := r.Alloc(8) // pin a's neighbor busy so in-place growth is impossible
		grown := r.Resize(a, 4096, 0)
		if grown != 0 {
			t.Error("resize without MOVE should fail rather than relocate")
		}
		r.Free(a)
		r.Free(b)
	})
}

func TestAlign(t *testing.T) {
	r := newTestRegion()

	for _, alignment := range []uintptr{8, 16, 64, 256} {
		addr := r.Align(100, alignment)
		if addr == 0 {
			t.Fatalf("align(100, %d) failed", alignment)
		}
		if addr%alignment != 0 {
			t.Errorf("address %#x is not aligned to %d", addr, alignment)
		}
		if r.SizeOf(addr) < 100 {
			t.Errorf("aligned block too small: %d", r.SizeOf(addr))
		}
		r.Free(addr)
	}

	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after align/free cycles: %v", err)
	}
}

func TestCompactReturnsZeroAndKeepsInvariants(t *testing.T) {
	r := newTestRegion()

	addr := r.Alloc(2048)
	if addr == 0 {
		t.Fatal("alloc failed")
	}
	r.Free(addr)

	if rv := r.Compact(); rv != 0 {
		t.Errorf("compact should always return 0, got %d", rv)
	}
	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("invariants broken after compact: %v", err)
	}
}

func TestCheckInvariantsDetectsCorruption(t *testing.T) {
	r := newTestRegion()

	addr := r.Alloc(64)
	r.Free(addr)
	r.reclaim(blockRef{}, 0) // force the freed block to settle into its home

	b := r.segs.blockAt(addr - headerSize)
	if b.isNil() || b.busy() {
		t.Skip("block didn't settle into a free home; nothing to corrupt")
	}
	if err := r.checkInvariants(); err != nil {
		t.Fatalf("invariants should hold before corruption: %v", err)
	}

	b.setSelf(0)
	if err := r.checkInvariants(); err == nil {
		t.Error("expected checkInvariants to catch a stale self-reference")
	}
}
