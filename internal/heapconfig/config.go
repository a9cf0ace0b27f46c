// Package heapconfig provides configuration for vmheap regions, following
// the functional-options pattern used throughout the allocator package
// this repo is built from.
package heapconfig

// Config collects the tunables a Region is constructed with. MaxTiny and
// MaxCacheSize are not here: the tiny-bucket and cache-bucket array
// widths (numTinyBuckets, sCache in internal/heap/block.go) are
// compile-time constants baked into fixed-size arrays on Region, not
// runtime-tunable bounds, so there is nothing for a Config field to
// plumb them into.
type Config struct {
	InitialGranularity uintptr // bytes requested per provider grow (the original's "incr")
	CompactFactor      float64 // the spec's COMPACT constant: free() triggers a compaction pass once the wilderness exceeds CompactFactor*Granularity
	EnableDebugCheck   bool    // run the invariant checker at the start of every alloc, free, resize and align

	Watcher *Watcher // optional hot-reload source for Granularity/CompactFactor
}

type Option func(*Config)

func defaultConfig() Config {
	return Config{
		InitialGranularity: 64 * 1024,
		CompactFactor:      8,
		EnableDebugCheck:   false,
	}
}

// NewConfig applies opts over the default configuration.
func NewConfig(opts ...Option) Config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithGranularity(bytes uintptr) Option {
	return func(c *Config) { c.InitialGranularity = bytes }
}

func WithCompactFactor(f float64) Option {
	return func(c *Config) { c.CompactFactor = f }
}

func WithDebugCheck(enabled bool) Option {
	return func(c *Config) { c.EnableDebugCheck = enabled }
}

func WithWatcher(w *Watcher) Option {
	return func(c *Config) { c.Watcher = w }
}

// Tunables is the subset of Config a Watcher may hot-reload.
type Tunables struct {
	Granularity   uintptr
	CompactFactor float64
}
