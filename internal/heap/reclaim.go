package heap

// reclaim drains the cache from bucket sCache down to lowBucket,
// coalescing adjacent free blocks and re-homing the result into the
// wilderness slot, a tiny bucket or the splay tree (spec.md §4.6,
// grounded on vmbest.c's bestreclaim). If wanted is non-nil and is
// found among the coalesced blocks, it is returned as found (a free
// block with its tags cleared) instead of being re-homed, so the caller
// can claim it directly.
func (r *Region) reclaim(wanted blockRef, lowBucket int) (found blockRef) {
	for n := sCache; n >= lowBucket; n-- {
		list := r.cache[n]
		r.cache[n] = blockRef{}

		for !list.isNil() {
			fp := list
			list = r.chainNext(list)

			if !fp.junk() {
				continue // a prior inner merge already consumed it
			}

			size := fp.size()
			if fp.pfree() {
				prev := r.previousPhysical(fp)
				s := prev.size()
				r.removeExact(prev)
				fp = prev
				size = size + s + headerSize
			}

			for {
				np := blockRef{seg: fp.seg, off: fp.bodyOff() + size}
				s := np.size()
				if !np.busy() {
					if !r.wilderness.isNil() && np.addr() == r.wilderness.addr() {
						r.wilderness = blockRef{}
					} else {
						r.removeExact(np)
					}
				} else if np.junk() {
					// np's own bucket is always <= n: buckets above n were
					// already fully drained by earlier iterations. Lowering
					// lowBucket only ensures the outer loop doesn't stop
					// before reaching it.
					if idx := cacheIndex(s); idx < lowBucket {
						lowBucket = idx
					}
					np.setSizeWord(0)
				} else {
					break
				}
				size += s + headerSize
			}

			fp.clearBits()
			fp.setSize(size)

			next := fp.nextPhysical()
			next.setPfree()
			fp.setSelf(uint64(fp.addr()))

			if !wanted.isNil() && fp.addr() == wanted.addr() {
				found = fp
				continue
			}

			r.homeFreeBlock(fp)
		}
	}
	return found
}

// homeFreeBlock gives a fully-coalesced free block its permanent home:
// the wilderness slot if it's the bottom segment's trailing block, a
// tiny bucket, or the splay tree.
func (r *Region) homeFreeBlock(fp blockRef) {
	if fp.nextPhysical().addr() == fp.seg.sentinel().addr() && fp.seg == r.segs.head {
		r.wilderness = fp
		return
	}
	if fp.size() < maxTiny {
		r.tinyPush(fp)
		return
	}
	r.treeInsert(fp)
}

// previousPhysical recovers the block immediately before b using the
// self-reference word at end(prev)-one_word, valid because PFREE(b) is
// set (spec.md invariant 3).
func (r *Region) previousPhysical(b blockRef) blockRef {
	addr := readWord(b.seg, b.off-wordSize)
	return r.resolve(addr)
}

// removeExact detaches a specific, known-free block b from whichever
// home currently holds it: an equal-size chain (O(1)), a tiny bucket,
// the wilderness slot, or the splay tree (where b, if not a chain
// member, is always the unique size-keyed head).
func (r *Region) removeExact(b blockRef) {
	switch {
	case b.link():
		prev := r.resolve(b.fleft())
		next := r.chain(b)
		r.setChain(prev, next)
		if !next.isNil() {
			b2 := next
			b2.setFleft(addrOf(prev))
		}
		b.clearLink()
	case !r.wilderness.isNil() && b.addr() == r.wilderness.addr():
		r.wilderness = blockRef{}
	case b.size() < maxTiny:
		r.tinyRemove(b)
	default:
		r.treeSearchDelete(b.size())
	}
}

// tinyRemove removes b from its bucket. Bucket 0 supports O(1) removal
// via the back-link; other buckets require a linear scan, which is fine
// since every member of a non-tiniest bucket shares the same size and
// this path only runs during merges, not the allocation fast path.
func (r *Region) tinyRemove(b blockRef) {
	idx := tinyIndex(b.size())
	if idx == 0 {
		r.tinyUnlink(b)
		return
	}
	var prev blockRef
	for cur := r.tiny[idx]; !cur.isNil(); cur = r.chainNext(cur) {
		if cur.addr() == b.addr() {
			if prev.isNil() {
				r.tiny[idx] = r.chainNext(cur)
			} else {
				r.setChainNext(prev, r.chainNext(cur))
			}
			if r.tiny[idx].isNil() {
				r.tinyCount &^= 1 << uint(idx)
			}
			return
		}
		prev = cur
	}
}
