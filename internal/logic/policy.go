package logic

import "github.com/sweeney/rc-indicator/internal/rc"

// DefaultTimeoutMs is how long a sample stays valid without a newer pulse.
const DefaultTimeoutMs = 300

// Policy decides whether a snapshot may be interpreted.
type Policy struct {
	Band      rc.Band
	TimeoutMs uint32
}

// DefaultPolicy returns the 800-2200 µs band with a 300 ms timeout.
func DefaultPolicy() Policy {
	return Policy{Band: rc.DefaultBand(), TimeoutMs: DefaultTimeoutMs}
}

// IsValid reports whether s is fresh at nowMs and inside the band.
// Age is the unsigned difference, so the snapshot must be taken before
// nowMs is read.
func (p Policy) IsValid(s rc.Sample, nowMs uint32) bool {
	if !s.Received() {
		return false
	}
	if nowMs-s.CapturedAtMillis > p.TimeoutMs {
		return false
	}
	return p.Band.Contains(s.WidthUs)
}
