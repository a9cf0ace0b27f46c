package heap

// Free implements spec.md §4.8. A nil body address is a silent no-op.
// Double-frees are tolerated silently, matching permissive C-library
// semantics; LastError still records the attempt for debug callers.
func (r *Region) Free(bodyAddr uintptr) {
	if bodyAddr == 0 {
		return
	}
	release := r.mu.lock(false)
	defer release()
	r.free(bodyAddr)
}

func (r *Region) free(bodyAddr uintptr) {
	r.debugCheck()
	b := r.segs.blockAt(bodyAddr - headerSize)
	if b.isNil() || !b.busy() || b.junk() {
		r.lastErr = invalidFreeErr(bodyAddr)
		return
	}

	b.setJunk()
	r.cachePush(b)

	size := b.size()
	r.pool = (r.pool + size) / 2

	if size >= 2*r.incrGranularity {
		r.reclaim(blockRef{}, 0)
		threshold := uintptr(r.compactFactor * float64(r.incrGranularity))
		if !r.wilderness.isNil() && r.wilderness.size() > threshold {
			r.compact()
		}
	}
}
