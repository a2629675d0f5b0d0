// Package clock provides the wrapping millisecond and microsecond counters the
// indicator pipeline runs on. Values are uint32 and wrap; compare them only by
// unsigned subtraction.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns monotonic tick counters since an arbitrary origin.
type Clock interface {
	Millis() uint32
	Micros() uint32
}

// Monotonic counts from the moment it was created.
type Monotonic struct {
	start time.Time
}

// New creates a Monotonic clock starting at zero.
func New() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Millis returns milliseconds since start, truncated to 32 bits.
func (m *Monotonic) Millis() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

// Micros returns microseconds since start, truncated to 32 bits.
func (m *Monotonic) Micros() uint32 {
	return uint32(time.Since(m.start).Microseconds())
}

// Fake is a manually advanced clock for tests. Safe for concurrent use.
type Fake struct {
	us atomic.Uint64
}

// NewFake creates a Fake clock at the given millisecond.
func NewFake(ms uint32) *Fake {
	f := &Fake{}
	f.us.Store(uint64(ms) * 1000)
	return f
}

// Millis returns the fake time in milliseconds.
func (f *Fake) Millis() uint32 {
	return uint32(f.us.Load() / 1000)
}

// Micros returns the fake time in microseconds.
func (f *Fake) Micros() uint32 {
	return uint32(f.us.Load())
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.us.Add(uint64(d.Microseconds()))
}

// Set moves the clock to the given millisecond.
func (f *Fake) Set(ms uint32) {
	f.us.Store(uint64(ms) * 1000)
}
