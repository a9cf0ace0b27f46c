package heap

// Resize implements spec.md §4.9. A nil bodyAddr behaves like Alloc; a
// zero newSize behaves like Free.
func (r *Region) Resize(bodyAddr uintptr, newSize uintptr, flags Flags) uintptr {
	release := r.mu.lock(false)
	defer release()
	r.debugCheck()

	if bodyAddr == 0 {
		b := r.alloc(newSize)
		if b.isNil() {
			return 0
		}
		return b.addr() + headerSize
	}
	if newSize == 0 {
		r.free(bodyAddr)
		return 0
	}

	tp := r.segs.blockAt(bodyAddr - headerSize)
	if tp.isNil() || !tp.busy() || tp.junk() {
		r.lastErr = invalidFreeErr(bodyAddr)
		return 0
	}

	newSize = roundSize(newSize)
	cur := tp.size()
	oldSize := cur

	if newSize <= cur {
		if cur-newSize >= headerSize+bodyMin {
			r.splitTail(tp, newSize)
			tp.setSize(newSize)
		}
		return tp.addr() + headerSize
	}

	// Forward-merge: pull adjoining free/cache-resident neighbors into
	// tp until it's large enough or a busy, non-junk block blocks us.
	for cur < newSize {
		np := blockRef{seg: tp.seg, off: tp.bodyOff() + cur}
		if np.isSentinel() {
			break
		}
		if !r.detachNeighbor(np) {
			break
		}
		cur += headerSize + np.size()
		tp.setSize(cur)
	}
	tp.nextPhysical().clearPfree()

	if cur < newSize {
		next := blockRef{seg: tp.seg, off: tp.bodyOff() + cur}
		if next.addr() == tp.seg.sentinel().addr() && tp.seg == r.segs.head {
			deficit := roundToGranule(newSize - cur)
			if deficit < r.incrGranularity {
				deficit = r.incrGranularity
			}
			newTotal := uintptr(len(tp.seg.data)) + deficit
			if r.growInPlace(tp.seg, newTotal) {
				cur += deficit
				tp.setSize(cur)
			}
		}
	}

	if cur >= newSize {
		tp.nextPhysical().clearPfree()
		if cur-newSize >= headerSize+bodyMin {
			r.splitTail(tp, newSize)
			tp.setSize(newSize)
		}
		if flags&ZeroFill != 0 {
			zeroTail(tp, oldSize, newSize)
		}
		return tp.addr() + headerSize
	}

	if flags&Move == 0 {
		return 0
	}
	fresh := r.alloc(newSize)
	if fresh.isNil() {
		return 0
	}
	if flags&Copy != 0 {
		n := tp.size()
		if n > fresh.size() {
			n = fresh.size()
		}
		copy(fresh.body()[:n], tp.body()[:n])
	}
	r.free(tp.addr() + headerSize)
	return fresh.addr() + headerSize
}

// detachNeighbor removes np from whatever passive home currently holds
// it — the tree/tiny list/wilderness if truly free, or the cache/
// last-freed slot if deferred — and reports whether np was available to
// absorb at all (false means np is busy and not junk: a hard stop).
func (r *Region) detachNeighbor(np blockRef) bool {
	if np.busy() {
		if !np.junk() {
			return false
		}
		return r.detachCacheNode(np)
	}
	if !r.wilderness.isNil() && np.addr() == r.wilderness.addr() {
		r.wilderness = blockRef{}
		return true
	}
	r.removeExact(np)
	return true
}

// detachCacheNode removes a specific busy+junk block from the
// last-freed slot or its classified cache bucket.
func (r *Region) detachCacheNode(np blockRef) bool {
	if !r.lastFreed.isNil() && r.lastFreed.addr() == np.addr() {
		r.lastFreed = blockRef{}
		return true
	}
	idx := cacheIndex(np.size())
	var prev blockRef
	for cur := r.cache[idx]; !cur.isNil(); cur = r.chainNext(cur) {
		if cur.addr() == np.addr() {
			if prev.isNil() {
				r.cache[idx] = r.chainNext(cur)
			} else {
				r.setChainNext(prev, r.chainNext(cur))
			}
			return true
		}
		prev = cur
	}
	return false
}

func zeroTail(b blockRef, oldSize, _ uintptr) {
	body := b.body()
	for i := int(oldSize); i < len(body); i++ {
		body[i] = 0
	}
}

func roundToGranule(n uintptr) uintptr {
	return (n + granule - 1) &^ (granule - 1)
}
