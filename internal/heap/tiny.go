package heap

// Tiny free-lists cover bodies in [bodyMin, maxTiny) (spec.md §4.4).
// Bucket 0, the tiniest class, is doubly linked via flink/fleft so a
// specific block can be unlinked in O(1) — needed when it is the
// target of a resize/merge pull. The remaining buckets are singly
// linked through flink only; removing a specific block from one of them
// takes a linear scan (tinyRemove in reclaim.go).

func (r *Region) tinyPush(fp blockRef) {
	idx := tinyIndex(fp.size())
	head := r.tiny[idx]
	r.setChainNext(fp, head)
	if idx == 0 && !head.isNil() {
		r.setFleftRef(head, fp)
	}
	r.setFleftRef(fp, blockRef{})
	r.tiny[idx] = fp
	r.tinyCount |= 1 << uint(idx)
}

// tinyPop removes and returns the head of bucket idx, or the zero
// blockRef if empty.
func (r *Region) tinyPop(idx int) blockRef {
	head := r.tiny[idx]
	if head.isNil() {
		return head
	}
	next := r.chainNext(head)
	r.tiny[idx] = next
	if idx == 0 && !next.isNil() {
		r.setFleftRef(next, blockRef{})
	}
	if next.isNil() {
		r.tinyCount &^= 1 << uint(idx)
	}
	return head
}

// tinyUnlink removes fp from bucket 0 (the only bucket where a
// specific block can be located in O(1), via its back-link).
func (r *Region) tinyUnlink(fp blockRef) {
	prev := r.resolve(fp.fleft())
	next := r.chainNext(fp)
	if prev.isNil() {
		r.tiny[0] = next
	} else {
		r.setChainNext(prev, next)
	}
	if !next.isNil() {
		r.setFleftRef(next, prev)
	}
	if r.tiny[0].isNil() {
		r.tinyCount &^= 1
	}
}

func (r *Region) chainNext(b blockRef) blockRef  { return r.resolve(b.flink()) }
func (r *Region) setChainNext(b, v blockRef)     { b.setFlink(addrOf(v)) }
func (r *Region) setFleftRef(b, v blockRef)      { b.setFleft(addrOf(v)) }

// tinyFind walks bucket idx linearly looking for fp. Debug-invariant
// use only, per spec.md §4.4 — not a supported fast-path operation.
func (r *Region) tinyFind(idx int, fp blockRef) bool {
	for b := r.tiny[idx]; !b.isNil(); b = r.chainNext(b) {
		if b.addr() == fp.addr() {
			return true
		}
	}
	return false
}
