// Package heap implements a best-fit memory allocator over one or more
// contiguous address-space segments obtained from a raw-memory provider.
//
// The design is a direct port of the splay-tree best-fit allocation
// method found in ksh's vmalloc library (vmbest.c): a splay tree of
// equal-size free-list heads keyed by block size, a vector of tiny
// free-lists for small blocks, a reclaim cache that defers coalescing,
// and a distinguished "wilderness" block at the high end of the bottom
// segment. Every block carries BUSY, PFREE and JUNK bits packed into
// the low three bits of its size word, mirroring the C original's bit
// tricks while staying inside Go's safety model: a block is addressed
// as an offset into a []byte arena owned by a segment rather than a
// raw pointer, and pointer-sized fields within a block's body are
// stored as absolute addresses resolved back to a blockRef through the
// owning region's segment manager.
package heap
