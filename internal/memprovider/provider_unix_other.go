//go:build unix && !linux

package memprovider

import "errors"

// mremapResize has no portable equivalent outside Linux (darwin/bsd
// expose no mremap(2)), so mmapAnonBackend/mmapZeroBackend's Resize
// always reports failure here. Region.Resize's caller already treats a
// failed in-place grow as "fall back to relocate and copy" (spec.md
// §4.9 step 3), so this is a correctness-preserving degradation, not a
// missing feature.
func mremapResize(data []byte, newSize int) ([]byte, error) {
	return nil, errors.New("mremap: not supported on this platform")
}
