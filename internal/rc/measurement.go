// Package rc measures the high time of an RC receiver PWM channel.
//
// Capture runs on the edge-event goroutine and is the only writer of a
// Measurement. Everything else reads through Snapshot.
package rc

import "sync/atomic"

// Standard RC convention admissible pulse band.
const (
	DefaultMinUs = 800
	DefaultMaxUs = 2200
)

// Sample is one completed pulse.
type Sample struct {
	WidthUs          uint32
	CapturedAtMillis uint32
}

// Received reports whether the sample came from a real pulse. The zero
// Sample means nothing has been captured yet.
func (s Sample) Received() bool {
	return s.WidthUs != 0
}

// Band is the inclusive range of admissible pulse widths.
type Band struct {
	MinUs uint32
	MaxUs uint32
}

// DefaultBand returns the 800-2200 µs band.
func DefaultBand() Band {
	return Band{MinUs: DefaultMinUs, MaxUs: DefaultMaxUs}
}

// Contains reports whether w lies in [MinUs, MaxUs].
func (b Band) Contains(w uint32) bool {
	return w >= b.MinUs && w <= b.MaxUs
}

// Measurement is a single-producer/single-consumer cell holding the latest
// Sample. Both fields live in one 64-bit word, so a reader sees either the
// previous or the current pulse, never a mix of the two.
type Measurement struct {
	word atomic.Uint64
}

// Snapshot returns a consistent copy of the latest sample.
func (m *Measurement) Snapshot() Sample {
	v := m.word.Load()
	return Sample{
		WidthUs:          uint32(v >> 32),
		CapturedAtMillis: uint32(v),
	}
}

func (m *Measurement) publish(s Sample) {
	m.word.Store(uint64(s.WidthUs)<<32 | uint64(s.CapturedAtMillis))
}
