package heap

import (
	"sync"

	"github.com/orizon-lang/vmheap/internal/heapconfig"
	"github.com/orizon-lang/vmheap/internal/herrors"
	"github.com/orizon-lang/vmheap/internal/memprovider"
)

// Region is one independent best-fit arena: its own segment chain, its
// own splay tree of size-keyed free lists, its own tiny free-lists and
// reclaim cache, and its own wilderness block. Multiple Regions never
// share state, matching spec.md §2's "region" module.
type Region struct {
	mu    regionLock
	cfg   heapconfig.Config
	prov  memprovider.Provider

	segs segmentManager
	root blockRef // splay tree root

	tiny      [numTinyBuckets]blockRef // tiny[0] is the tiniest doubly-linked class
	tinyCount uint32                   // bitmap-friendly count; bit i set iff tiny[i] non-empty

	cache     [sCache + 1]blockRef // reclaim cache buckets, index sCache is the catch-all
	lastFreed blockRef             // most recently freed block, tried first on next alloc

	wilderness blockRef // last block of the bottom segment, if currently free
	pool       uintptr  // running estimate of typical freed-block size: pool = (pool+freed)/2, throttles compaction (spec.md §4.7/§4.11)

	incrGranularity uintptr // bytes requested per provider grow, tunable at runtime
	compactFactor   float64 // free() opportunistically compacts once the wilderness exceeds compactFactor*incrGranularity

	unregister func() // stops the config hot-reload watcher, if one was started

	lastErr *herrors.StandardError
}

// LastError returns the most recently recorded error (out of memory,
// invalid free or resize address, or a leak noted at close), or nil if
// none has been recorded. A later successful operation does not clear
// it, and AddressCheck/SizeOf never record one. It never changes a
// public operation's nil-returning contract (spec.md §7); it is an
// accessor for callers and tests that want the reason.
func (r *Region) LastError() *herrors.StandardError {
	release := r.mu.lock(false)
	defer release()
	return r.lastErr
}

// regionLock is the re-entrant lock described in spec.md §5: at most one
// goroutine holds it, but a call already holding the lock (local == true)
// may recurse into another region operation without blocking.
type regionLock struct {
	mu    sync.Mutex
	owner bool // not read or written; re-entrancy is handled only by the local flag
}

func (l *regionLock) lock(local bool) (release func()) {
	if local {
		return func() {}
	}
	l.mu.Lock()
	return l.mu.Unlock
}

// NewRegion creates an empty region with no segments. The first
// allocation triggers the initial provider grow (spec.md §4.7).
func NewRegion(prov memprovider.Provider, opts ...heapconfig.Option) *Region {
	cfg := heapconfig.NewConfig(opts...)
	r := &Region{
		cfg:             cfg,
		prov:            prov,
		incrGranularity: cfg.InitialGranularity,
		compactFactor:   cfg.CompactFactor,
	}
	if w := cfg.Watcher; w != nil {
		r.unregister = w.Watch(func(next heapconfig.Tunables) {
			release := r.mu.lock(false)
			defer release()
			r.incrGranularity = next.Granularity
			r.compactFactor = next.CompactFactor
		})
	}
	return r
}

// Close stops the region's background config watcher, if any. It does
// not release provider memory: segments are only returned via Compact.
func (r *Region) Close() {
	if r.unregister != nil {
		r.unregister()
	}
}

// NoteLeak records, via LastError, that n allocations were still
// outstanding when a caller with leak checking enabled closed this
// region. It never panics or otherwise changes Close's behavior —
// spec.md §7 keeps this allocator's error surface nil/-1/silent, so a
// detected leak is only ever observable through LastError.
func (r *Region) NoteLeak(n int) {
	release := r.mu.lock(false)
	defer release()
	r.lastErr = leakErr(n)
}
