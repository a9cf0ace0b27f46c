package heap

import "fmt"

// CheckInvariants walks the free tree and every segment verifying the
// structural invariants spec.md §8 lists, mirroring vmbest.c's
// _vmbestcheck/vmchktree/vmisfree/vmisjunk (original_source). It's
// debug tooling for tests and the EnableDebugCheck config knob, not
// part of the allocation fast path.
func (r *Region) CheckInvariants() error {
	release := r.mu.lock(false)
	defer release()
	return r.checkInvariants()
}

// debugCheck runs checkInvariants and panics on the first violation
// when heapconfig.WithDebugCheck is enabled. This mirrors the
// ASSERT(_vmbestcheck(vd, NULL) == 0) calls original_source bodies its
// bestalloc/bestfree/bestresize/bestalign/bestcompact with under
// _BLD_DEBUG, except it's gated by a runtime config flag rather than a
// build flag so tests can toggle it per Region.
func (r *Region) debugCheck() {
	if !r.cfg.EnableDebugCheck {
		return
	}
	if err := r.checkInvariants(); err != nil {
		panic(err)
	}
}

func (r *Region) checkInvariants() error {
	if !r.root.isNil() {
		if err := r.checkTree(r.root); err != nil {
			return err
		}
	}
	for s := r.segs.head; s != nil; s = s.next {
		if err := r.checkSegment(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Region) checkTree(node blockRef) error {
	if node.sizeWord()&(tagBusy|tagPfree|tagJunk) != 0 {
		return fmt.Errorf("heap: tree node at %#x carries busy/pfree/junk bits", node.addr())
	}
	if node.link() {
		return fmt.Errorf("heap: tree-navigable node at %#x still carries tagLink (stale chain-head promotion)", node.addr())
	}
	size := node.size()
	for t := r.chain(node); !t.isNil(); t = r.chain(t) {
		if !t.link() {
			return fmt.Errorf("heap: chain member at %#x is missing tagLink", t.addr())
		}
		if t.size() != size {
			return fmt.Errorf("heap: chain member at %#x has size %d, head has %d", t.addr(), t.size(), size)
		}
	}
	if l := r.left(node); !l.isNil() {
		if l.size() >= size {
			return fmt.Errorf("heap: left child at %#x (size %d) >= parent size %d", l.addr(), l.size(), size)
		}
		if err := r.checkTree(l); err != nil {
			return err
		}
	}
	if rt := r.right(node); !rt.isNil() {
		if rt.size() <= size {
			return fmt.Errorf("heap: right child at %#x (size %d) <= parent size %d", rt.addr(), rt.size(), size)
		}
		if err := r.checkTree(rt); err != nil {
			return err
		}
	}
	return nil
}

func (r *Region) checkSegment(s *segment) error {
	end := s.sentinelOff()
	for b := s.firstBlock(); b.off < end; {
		next := b.nextPhysical()

		if !b.busy() {
			if b.sizeWord()&(tagBusy|tagJunk|tagPfree) != 0 {
				return fmt.Errorf("heap: free block at %#x carries busy/junk/pfree bits", b.addr())
			}
			if !next.busy() || !next.pfree() {
				return fmt.Errorf("heap: block following free block at %#x is not busy+pfree", b.addr())
			}
			if b.self() != uint64(b.addr()) {
				return fmt.Errorf("heap: free block at %#x has a stale self-reference", b.addr())
			}
			if b.segIndex() != s.index {
				return fmt.Errorf("heap: free block at %#x has the wrong segment back-pointer", b.addr())
			}
			if !r.isKnownFree(b) {
				return fmt.Errorf("heap: free block at %#x isn't homed in any free list", b.addr())
			}
		} else {
			if b.segIndex() != s.index {
				return fmt.Errorf("heap: busy block at %#x has the wrong segment back-pointer", b.addr())
			}
			if next.pfree() {
				return fmt.Errorf("heap: block following busy block at %#x is marked pfree", b.addr())
			}
			if b.pfree() {
				prev := r.previousPhysical(b)
				if !r.isKnownFree(prev) {
					return fmt.Errorf("heap: block at %#x is marked pfree but its predecessor isn't free", b.addr())
				}
			}
			if b.junk() && !r.isKnownJunk(b) {
				return fmt.Errorf("heap: block at %#x is marked junk but isn't in the reclaim cache", b.addr())
			}
		}

		b = next
	}
	return nil
}

// isKnownFree reports whether b is reachable from the wilderness slot,
// a tiny bucket, or the splay tree (vmisfree).
func (r *Region) isKnownFree(b blockRef) bool {
	if b.sizeWord()&(tagBusy|tagJunk|tagPfree) != 0 {
		return false
	}
	if !r.wilderness.isNil() && b.addr() == r.wilderness.addr() {
		return true
	}
	if b.size() < maxTiny {
		return r.tinyFind(tinyIndex(b.size()), b)
	}
	if !r.root.isNil() {
		return r.treeContains(r.root, b)
	}
	return false
}

func (r *Region) treeContains(node, b blockRef) bool {
	for t := node; !t.isNil(); t = r.chain(t) {
		if t.addr() == b.addr() {
			return true
		}
	}
	if l := r.left(node); !l.isNil() && r.treeContains(l, b) {
		return true
	}
	if rt := r.right(node); !rt.isNil() && r.treeContains(rt, b) {
		return true
	}
	return false
}

// isKnownJunk reports whether b is reachable from the last-freed slot,
// its classified cache bucket, or the catch-all bucket (vmisjunk).
func (r *Region) isKnownJunk(b blockRef) bool {
	if !b.busy() || !b.junk() {
		return false
	}
	if !r.lastFreed.isNil() && b.addr() == r.lastFreed.addr() {
		return true
	}
	idx := cacheIndex(b.size())
	for t := r.cache[idx]; !t.isNil(); t = r.chainNext(t) {
		if t.addr() == b.addr() {
			return true
		}
	}
	if idx < sCache {
		for t := r.cache[sCache]; !t.isNil(); t = r.chainNext(t) {
			if t.addr() == b.addr() {
				return true
			}
		}
	}
	return false
}
