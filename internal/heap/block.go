package heap

import "encoding/binary"

// Layout constants. All sizes are multiples of granule; granule must be
// at least 4 so the three tag bits in the low end of the size word are
// free, and must evenly divide headerSize and bodyMin (spec.md §4.1).
const (
	wordSize   = 8
	headerSize = 2 * wordSize // size word + segment word
	granule    = 8

	// bodyMin is BODYSIZE: the smallest body any block (free or busy)
	// may have. It must hold a link word, a left/back-link word and a
	// self-reference word for the tiniest free-list class.
	bodyMin = 3 * wordSize

	// Tiny free-lists cover bodies in [bodyMin, maxTiny). Bucket 0 is
	// the tiniest (doubly-linked) class.
	numTinyBuckets = 16
	maxTiny        = bodyMin + numTinyBuckets*granule

	// Reclaim cache buckets, indexed by size/granule capped at sCache.
	sCache   = 64
	maxCache = sCache * granule
)

// Tag bits packed into a block's size word: BUSY, PFREE and JUNK in the
// low three bits, LINK in the top bit, clear of every possible size.
const (
	tagBusy  uint64 = 1 << 0
	tagPfree uint64 = 1 << 1
	tagJunk  uint64 = 1 << 2
	tagLink  uint64 = 1 << 63 // marks a free block as an equal-size chain member, not a tree node
	tagMask  uint64 = tagBusy | tagPfree | tagJunk | tagLink
)

// blockRef addresses a block header by its offset within a segment's
// backing arena. It is the Go analogue of a Block_t* in the original.
type blockRef struct {
	seg *segment
	off uintptr
}

func (b blockRef) isNil() bool { return b.seg == nil }

// addr returns the block's absolute address, used for self-reference
// comparisons and the public address-check/size-of contract.
func (b blockRef) addr() uintptr { return b.seg.base + b.off }

func (b blockRef) header() []byte { return b.seg.data[b.off : b.off+headerSize] }

func (b blockRef) sizeWord() uint64 {
	return binary.LittleEndian.Uint64(b.seg.data[b.off : b.off+wordSize])
}

func (b blockRef) setSizeWord(w uint64) {
	binary.LittleEndian.PutUint64(b.seg.data[b.off:b.off+wordSize], w)
}

// size returns the body size with tag bits masked off.
func (b blockRef) size() uintptr { return uintptr(b.sizeWord() &^ tagMask) }

func (b blockRef) setSize(sz uintptr) {
	b.setSizeWord((uint64(sz) &^ tagMask) | (b.sizeWord() & tagMask))
}

func (b blockRef) busy() bool  { return b.sizeWord()&tagBusy != 0 }
func (b blockRef) pfree() bool { return b.sizeWord()&tagPfree != 0 }
func (b blockRef) junk() bool  { return b.sizeWord()&tagJunk != 0 }
func (b blockRef) link() bool  { return b.sizeWord()&tagLink != 0 }

func (b blockRef) setBusy()    { b.setSizeWord(b.sizeWord() | tagBusy) }
func (b blockRef) clearBusy()  { b.setSizeWord(b.sizeWord() &^ tagBusy) }
func (b blockRef) setPfree()   { b.setSizeWord(b.sizeWord() | tagPfree) }
func (b blockRef) clearPfree() { b.setSizeWord(b.sizeWord() &^ tagPfree) }
func (b blockRef) setJunk()    { b.setSizeWord(b.sizeWord() | tagJunk) }
func (b blockRef) clearJunk()  { b.setSizeWord(b.sizeWord() &^ tagJunk) }
func (b blockRef) setLink()    { b.setSizeWord(b.sizeWord() | tagLink) }
func (b blockRef) clearLink()  { b.setSizeWord(b.sizeWord() &^ tagLink) }

// clearBits clears BUSY|PFREE|JUNK|LINK, leaving the plain size.
func (b blockRef) clearBits() { b.setSizeWord(uint64(b.size())) }

// segIndex/setSegIndex hold the owning segment's index. Every block,
// tiniest ones included, carries this word.
func (b blockRef) segIndex() uint32 {
	return uint32(binary.LittleEndian.Uint64(b.seg.data[b.off+wordSize : b.off+2*wordSize]))
}

func (b blockRef) setSegIndex(idx uint32) {
	binary.LittleEndian.PutUint64(b.seg.data[b.off+wordSize:b.off+2*wordSize], uint64(idx))
}

func (b blockRef) bodyOff() uintptr { return b.off + headerSize }

func (b blockRef) body() []byte {
	sz := b.size()
	return b.seg.data[b.bodyOff() : b.bodyOff()+sz]
}

// word reads/writes the n'th 8-byte word of the body (0-indexed).
func (b blockRef) word(n uintptr) uint64 {
	return readWord(b.seg, b.bodyOff()+n*wordSize)
}

func (b blockRef) setWord(n uintptr, v uint64) {
	writeWord(b.seg, b.bodyOff()+n*wordSize, v)
}

// readWord/writeWord access a raw 8-byte word at an arbitrary segment
// offset, used for the previous-block self-reference lookup (spec.md
// invariant 3), which reads one word before a block's own header.
func readWord(seg *segment, off uintptr) uint64 {
	return binary.LittleEndian.Uint64(seg.data[off : off+wordSize])
}

func writeWord(seg *segment, off uintptr, v uint64) {
	binary.LittleEndian.PutUint64(seg.data[off:off+wordSize], v)
}

// lastWordIndex locates the word at end(B)-one_word, used for the
// self-reference pointer on every free block (spec.md invariant 3).
func (b blockRef) lastWordIndex() uintptr { return b.size()/wordSize - 1 }

func (b blockRef) self() uint64        { return b.word(b.lastWordIndex()) }
func (b blockRef) setSelf(addr uint64) { b.setWord(b.lastWordIndex(), addr) }

// Free-block body accessors. Word 0 is link, word 1 is left (or the
// tiniest back-pointer), word 2 is right for tree-eligible blocks.
func (b blockRef) flink() uint64     { return b.word(0) }
func (b blockRef) setFlink(v uint64) { b.setWord(0, v) }
func (b blockRef) fleft() uint64     { return b.word(1) }
func (b blockRef) setFleft(v uint64) { b.setWord(1, v) }
func (b blockRef) fright() uint64    { return b.word(2) }
func (b blockRef) setFright(v uint64) { b.setWord(2, v) }

// nextPhysical returns the block immediately following b in the same
// segment (valid as long as b is not the segment's sentinel).
func (b blockRef) nextPhysical() blockRef {
	return blockRef{seg: b.seg, off: b.bodyOff() + b.size()}
}

// isSentinel reports whether b is the zero-size busy block terminating
// its segment.
func (b blockRef) isSentinel() bool { return b.size() == 0 && b.busy() }

// roundSize rounds a requested size up to at least bodyMin and to the
// next granule multiple, matching spec.md §4.7 step 1 (and the
// ANSI-malloc(0) contract: a zero request still yields bodyMin).
func roundSize(n uintptr) uintptr {
	if n <= bodyMin {
		return bodyMin
	}
	return (n + granule - 1) &^ (granule - 1)
}

func tinyIndex(size uintptr) int { return int((size - bodyMin) / granule) }

func cacheIndex(size uintptr) int {
	idx := int(size / granule)
	if idx > sCache {
		idx = sCache
	}
	return idx
}
