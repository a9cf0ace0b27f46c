package heap

// Alloc implements spec.md §4.7, returning a body address or 0. It
// returns 0 only when every fallback — last-freed split, cache drain,
// wilderness, and a fresh segment — is exhausted.
func (r *Region) Alloc(size uintptr) uintptr {
	release := r.mu.lock(false)
	defer release()
	b := r.alloc(size)
	if b.isNil() {
		return 0
	}
	return b.addr() + headerSize
}

func (r *Region) alloc(size uintptr) blockRef {
	size = roundSize(size)
	r.debugCheck()

	if tp := r.tryLastFreed(size); !tp.isNil() {
		return r.finishAlloc(tp, size)
	}

	r.cacheEvictLastFreed()
	if tp := r.drainReclaim(size); !tp.isNil() {
		return r.finishAlloc(tp, size)
	}

	if !r.wilderness.isNil() && r.wilderness.size() >= size {
		tp := r.wilderness
		r.wilderness = blockRef{}
		return r.finishAlloc(tp, size)
	}

	r.compactOpportunistic()
	if err := r.ensureProvider(); err != nil {
		r.lastErr = outOfMemoryErr(size)
		return blockRef{}
	}
	tp := r.growSegment(size)
	if tp.isNil() {
		r.lastErr = outOfMemoryErr(size)
		return blockRef{}
	}
	return r.finishAlloc(tp, size)
}

// tryLastFreed implements step 2: reuse last-freed directly when its
// size is within [size, 2*size), splitting off any trailing remainder.
func (r *Region) tryLastFreed(size uintptr) blockRef {
	fp := r.lastFreed
	if fp.isNil() {
		return blockRef{}
	}
	s := fp.size()
	if !(size <= s && s < 2*size) {
		return blockRef{}
	}
	r.lastFreed = blockRef{}

	if s >= size+headerSize+bodyMin {
		r.splitTail(fp, size)
	}
	return fp
}

// drainReclaim implements step 3: with last-freed already flushed into
// the cache by alloc, sweep buckets sCache..0, attempting a tree search
// after each.
func (r *Region) drainReclaim(size uintptr) blockRef {
	for n := sCache; n >= 0; n-- {
		r.reclaim(blockRef{}, n)
		if tp := r.treeSearchDelete(size); !tp.isNil() {
			return tp
		}
	}
	return blockRef{}
}

// splitTail carves a trailing free fragment of tp starting at `size`
// bytes in, leaving tp sized exactly to `size`. The fragment is marked
// BUSY|JUNK and routed through the cache classifier (spec.md §4.7 step
// 6 describes the same split shape for post-grow blocks; step 2 reuses
// it for the last-freed fast path). Bit-tags other than JUNK survive.
func (r *Region) splitTail(tp blockRef, size uintptr) blockRef {
	full := tp.size()
	tail := blockRef{seg: tp.seg, off: tp.bodyOff() + size}
	tailSize := full - size - headerSize

	tp.setSize(size)

	tail.setSizeWord(uint64(tailSize))
	tail.setSegIndex(tp.segIndex())

	if tail.nextPhysical().addr() == tail.seg.sentinel().addr() && tail.seg == r.segs.head {
		// Abuts the bottom segment's sentinel: claimed by the wilderness
		// rather than routed through the cache.
		tail.setSelf(uint64(tail.addr()))
		tail.nextPhysical().setPfree()
		r.wilderness = tail
	} else {
		tail.nextPhysical().clearPfree()
		tail.setBusy()
		tail.setJunk()
		r.cachePush(tail)
	}

	return tail
}

// finishAlloc marks tp BUSY, splits off a tail if there's enough slack,
// clears PFREE on the following block, and returns tp (spec.md §4.7
// steps 6-7).
func (r *Region) finishAlloc(tp blockRef, size uintptr) blockRef {
	full := tp.size()
	if full-size >= headerSize+bodyMin {
		r.splitTail(tp, size)
		full = size
	}
	tp.clearJunk()
	tp.clearLink()
	tp.setSize(full)
	tp.setBusy()
	tp.nextPhysical().clearPfree()
	return tp
}

// compactOpportunistic runs the compactor before extending, per spec.md
// §4.7 step 5's "call the compactor opportunistically."
func (r *Region) compactOpportunistic() {
	r.compact()
}
