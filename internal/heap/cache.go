package heap

// The reclaim cache defers coalescing of freed blocks (spec.md §4.5): a
// vector of sCache+1 list heads plus a single last-freed slot that can
// be reused with zero list traffic. Every cache-resident block carries
// BUSY|JUNK; its size word stays valid so neighbors can still compute
// nextPhysical/prev through it.

// cachePush classifies and stores a freshly JUNKed block fp.
func (r *Region) cachePush(fp blockRef) {
	size := fp.size()
	switch {
	case size < maxCache:
		idx := cacheIndex(size)
		r.setChainNext(fp, r.cache[idx])
		r.cache[idx] = fp
	case r.lastFreed.isNil():
		r.lastFreed = fp
	default:
		r.setChainNext(fp, r.cache[sCache])
		r.cache[sCache] = fp
	}
}

// cacheEvictLastFreed moves the current last-freed slot onto the catch-all
// bucket, freeing the slot for reuse (spec.md §4.7 step 3).
func (r *Region) cacheEvictLastFreed() {
	if r.lastFreed.isNil() {
		return
	}
	r.setChainNext(r.lastFreed, r.cache[sCache])
	r.cache[sCache] = r.lastFreed
	r.lastFreed = blockRef{}
}

// cachePopBucket removes and returns the head of bucket idx.
func (r *Region) cachePopBucket(idx int) blockRef {
	head := r.cache[idx]
	if head.isNil() {
		return head
	}
	r.cache[idx] = r.chainNext(head)
	return head
}
