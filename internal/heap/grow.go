package heap

import "github.com/orizon-lang/vmheap/internal/memprovider"

// growSegment asks the provider for a fresh range of at least minBody
// usable body bytes, lays out a single free block spanning the whole
// range followed by a zero-size busy sentinel, and links the segment in
// (spec.md §4.7 step 5's "extend" collaborator). It returns the new
// free block, or the zero blockRef if every backend refused.
func (r *Region) growSegment(minBody uintptr) blockRef {
	want := minBody
	if r.incrGranularity > want {
		want = r.incrGranularity
	}
	total := want + 2*headerSize

	seg, err := r.prov.Backend.Grow(total)
	if err != nil {
		return blockRef{}
	}
	if !r.prov.Probe(seg.Base, uintptr(len(seg.Data))) {
		r.prov.Backend.Shrink(seg)
		return blockRef{}
	}

	s := &segment{
		base:   seg.Base,
		size:   uintptr(len(seg.Data)) - 2*headerSize,
		extent: uintptr(len(seg.Data)),
		data:   seg.Data,
	}
	r.segs.link(s, true)

	fp := s.firstBlock()
	body := uintptr(len(seg.Data)) - 2*headerSize
	fp.setSizeWord(uint64(body))
	fp.setSegIndex(s.index)
	fp.setSelf(uint64(fp.addr()))

	sentinel := s.sentinel()
	sentinel.setSizeWord(0)
	sentinel.setBusy()
	sentinel.setPfree()

	if r.incrGranularity < maxProviderGranularity {
		r.incrGranularity *= 2
	}

	return fp
}

// growInPlace asks the backend to extend s to newTotal bytes without
// relocating it, and if successful, re-lays-out the segment's data
// slice and sentinel to match. It refuses a relocated result: absolute
// in-arena addresses stored in block bodies must never move.
func (r *Region) growInPlace(s *segment, newTotal uintptr) bool {
	cur := memprovider.Segment{Data: s.data, Base: s.base}
	grown, ok := r.prov.Backend.Resize(cur, newTotal)
	if !ok || grown.Base != s.base {
		return false
	}

	s.data = grown.Data
	s.size = uintptr(len(grown.Data)) - 2*headerSize
	s.extent = uintptr(len(grown.Data))

	sentinel := s.sentinel()
	sentinel.setSizeWord(0)
	sentinel.setBusy()
	sentinel.setPfree()

	return true
}

const maxProviderGranularity = 64 * 1024 * 1024

// ensureProvider lazily opens the default provider on first use.
func (r *Region) ensureProvider() error {
	if r.prov.Backend != nil {
		return nil
	}
	p, err := memprovider.Open(">=0.0.0")
	if err != nil {
		return err
	}
	r.prov = p
	return nil
}
