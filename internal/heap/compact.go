package heap

import "github.com/orizon-lang/vmheap/internal/memprovider"

// Compact implements spec.md §4.11. A full reclaim coalesces every
// cache-resident block first, then each segment whose trailing block is
// free is shrunk (or released outright) back to the raw-memory
// provider. It always returns 0: a failed shrink just leaves the
// segment as it was.
func (r *Region) Compact() int {
	release := r.mu.lock(false)
	defer release()
	return r.compact()
}

func (r *Region) compact() int {
	r.reclaim(blockRef{}, 0)

	for s := r.segs.head; s != nil; {
		next := s.next
		r.compactSegment(s)
		s = next
	}
	return 0
}

// compactSegment releases the trailing free block of s, if any, back to
// the provider. The bottom segment's wilderness is spared unless it has
// swollen well past anything ordinary growth would ask for, so a single
// big free() doesn't thrash an immediately-following alloc() into
// re-requesting a fresh segment.
func (r *Region) compactSegment(s *segment) {
	sentinel := s.sentinel()
	if !sentinel.pfree() {
		return
	}

	bp := r.resolve(readWord(s, sentinel.off-wordSize))
	if bp.isNil() || bp.seg != s {
		return
	}

	isBottom := s == r.segs.head && !r.wilderness.isNil() && bp.addr() == r.wilderness.addr()
	if isBottom && !r.shouldReleaseWilderness(bp) {
		return
	}

	precededByFree := bp.pfree()
	r.removeExact(bp)

	newLen := bp.off + headerSize
	cur := memprovider.Segment{Data: s.data, Base: s.base}

	if newLen <= headerSize {
		if err := r.prov.Backend.Shrink(cur); err != nil {
			r.homeFreeBlock(bp)
			return
		}
		r.segs.unlink(s)
		return
	}

	shrunk, ok := r.prov.Backend.Resize(cur, newLen)
	if !ok || shrunk.Base != s.base {
		r.homeFreeBlock(bp)
		return
	}

	s.data = shrunk.Data
	s.size = uintptr(len(shrunk.Data)) - 2*headerSize
	s.extent = uintptr(len(shrunk.Data))

	newSentinel := s.sentinel()
	newSentinel.setSizeWord(0)
	newSentinel.setBusy()
	if precededByFree {
		newSentinel.setPfree()
	}
}

// shouldReleaseWilderness reports whether the bottom segment's trailing
// free block has grown far beyond what the current growth discipline or
// recent free() traffic would ask for on its own. Below that bar it's
// preserved: releasing a normally-sized wilderness would just force the
// very next large alloc to re-request an equally large segment.
func (r *Region) shouldReleaseWilderness(bp blockRef) bool {
	threshold := r.incrGranularity * 4
	if r.pool > threshold {
		threshold = r.pool
	}
	return bp.size() > threshold
}
