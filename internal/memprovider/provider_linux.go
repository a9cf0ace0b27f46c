//go:build linux

package memprovider

import "golang.org/x/sys/unix"

// mremapResize asks the kernel to grow or shrink data's mapping in
// place. No MREMAP_MAYMOVE is passed, so the call fails rather than
// relocating the mapping. unix.Mremap is a Linux syscall binding;
// darwin/bsd have no equivalent, so this file is Linux-only and
// provider_unix_other.go supplies the fallback for the rest of the
// "unix" build-tag family.
func mremapResize(data []byte, newSize int) ([]byte, error) {
	return unix.Mremap(data, newSize, 0)
}
