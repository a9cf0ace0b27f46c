package heap

// AddressCheck implements spec.md §4.2/§6: 0 when bodyAddr names the
// body start of a busy, non-junk block; -1 otherwise. blockAt alone only
// proves bodyAddr-headerSize lands inside some segment's byte range, not
// that it lands on an actual header boundary — an interior or misaligned
// address would read a "size word" from the middle of a block body and
// could spuriously pass the busy/non-junk check. So the non-local path
// resolved here must walk the segment from its first block forward
// (addressCheckLinear) and only report valid when bodyAddr is an exact
// body start, per spec.md §4.2's resolved Open Question.
func (r *Region) AddressCheck(bodyAddr uintptr) int {
	release := r.mu.lock(false)
	defer release()

	if bodyAddr == 0 {
		return -1
	}
	s := r.segs.findSegment(bodyAddr - headerSize)
	if s == nil {
		return -1
	}
	if !addressCheckLinear(s, bodyAddr) {
		return -1
	}
	return 0
}

// SizeOf implements spec.md §6: the body size of a busy, non-junk
// block, or -1.
func (r *Region) SizeOf(bodyAddr uintptr) int64 {
	release := r.mu.lock(false)
	defer release()

	if bodyAddr == 0 {
		return -1
	}
	s := r.segs.findSegment(bodyAddr - headerSize)
	if s == nil || !addressCheckLinear(s, bodyAddr) {
		return -1
	}
	b := blockRef{seg: s, off: bodyAddr - headerSize - s.base}
	return int64(b.size())
}
