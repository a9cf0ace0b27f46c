package heap

// Align implements spec.md §4.10: an allocation whose body address is a
// multiple of alignment. It over-allocates by 2*(alignment+headerSize),
// carves off whatever leading fragment is needed
// to land on the boundary, then trims the trailing slack the same way
// Alloc would.
func (r *Region) Align(size, alignment uintptr) uintptr {
	release := r.mu.lock(false)
	defer release()
	return r.align(size, alignment)
}

func (r *Region) align(size, alignment uintptr) uintptr {
	r.debugCheck()
	size = roundSize(size)

	if alignment <= granule {
		tp := r.alloc(size)
		if tp.isNil() {
			return 0
		}
		return tp.addr() + headerSize
	}
	alignment = roundToGranule(alignment)

	tp := r.alloc(size + 2*(alignment+headerSize))
	if tp.isNil() {
		return 0
	}

	bodyAddr := tp.addr() + headerSize
	aligned := (bodyAddr + alignment - 1) &^ (alignment - 1)
	lead := aligned - bodyAddr
	for lead != 0 && lead < headerSize+bodyMin {
		// Not enough room to turn the gap into its own free block;
		// jump to the next aligned address instead. The 2*alignment
		// slack bought by the oversized request covers this.
		aligned += alignment
		lead = aligned - bodyAddr
	}

	result := tp
	if lead != 0 {
		result = r.carveLead(tp, lead-headerSize)
	}

	if result.size()-size >= headerSize+bodyMin {
		r.splitTail(result, size)
	}

	r.reclaim(blockRef{}, 0)

	return result.addr() + headerSize
}

// carveLead splits off the first leadBody bytes of tp's body as a
// standalone block, frees it through the ordinary free path, and
// returns the remainder as a still-BUSY block owned by the caller.
func (r *Region) carveLead(tp blockRef, leadBody uintptr) blockRef {
	full := tp.size()
	tail := blockRef{seg: tp.seg, off: tp.bodyOff() + leadBody}
	tailBody := full - leadBody - headerSize

	tp.setSize(leadBody)
	tail.setSizeWord(uint64(tailBody))
	tail.setSegIndex(tp.segIndex())
	tail.setBusy()

	tp.clearJunk()
	tp.setSize(leadBody)
	tp.setBusy()

	r.free(tp.addr() + headerSize)

	return tail
}
