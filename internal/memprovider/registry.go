package memprovider

import (
	semver "github.com/Masterminds/semver/v3"
)

// candidate pairs a Backend with the capability version it advertises,
// the same way the teacher's packagemanager resolver pairs a package
// version with the constraints it must satisfy — here repurposed as a
// one-shot gate at Open() time rather than full dependency resolution.
type candidate struct {
	build   func() (Backend, error)
	version string // semver string this backend's capability level satisfies
}

// preference is the backend search order: on Windows, OS-native
// allocation then the Go-heap fallback; on unix, anonymous mmap, then
// /dev/zero-backed mmap, then the Go-heap fallback. No program-break
// backend exists in this port, so neither program-break step of the
// original's order is tried.
var preference = buildPreference()

// Open selects the first backend whose constructor succeeds and whose
// advertised capability version satisfies minVersion. minVersion ">=0.0.0"
// accepts anything, which is what every Region uses today — the gate
// exists so a future Region that requires in-place shrink support (only
// the mmap backends offer it) can demand a higher capability floor.
func Open(minVersion string) (Provider, error) {
	constraint, err := semver.NewConstraint(minVersion)
	if err != nil {
		return Provider{}, err
	}

	var lastErr error
	for _, c := range preference {
		v, err := semver.NewVersion(c.version)
		if err != nil || !constraint.Check(v) {
			continue
		}
		b, err := c.build()
		if err != nil {
			lastErr = err
			continue
		}
		return Provider{Backend: b, ProbeAddressable: probeFor(b)}, nil
	}
	if lastErr == nil {
		lastErr = ErrUnsupported
	}
	return Provider{}, lastErr
}
