package watchdog

import "sync/atomic"

// FakeDevice counts pings for tests.
type FakeDevice struct {
	pings  atomic.Int64
	closed atomic.Bool

	// PingError, if set, is returned by Ping. Set it before sharing the
	// device with another goroutine.
	PingError error
}

// Ping records a keepalive.
func (f *FakeDevice) Ping() error {
	if f.PingError != nil {
		return f.PingError
	}
	f.pings.Add(1)
	return nil
}

// Close marks the device closed.
func (f *FakeDevice) Close() error {
	f.closed.Store(true)
	return nil
}

// Pings returns the number of successful pings.
func (f *FakeDevice) Pings() int {
	return int(f.pings.Load())
}

// Closed reports whether Close was called.
func (f *FakeDevice) Closed() bool {
	return f.closed.Load()
}
