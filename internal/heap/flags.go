package heap

// Flags control Resize's behavior when an in-place extension isn't
// possible (spec.md §6's {MOVE, COPY, ZERO}).
type Flags uint8

const (
	Move Flags = 1 << iota
	Copy
	ZeroFill
)
