package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/rc-indicator/internal/blink"
)

// FakeEdgeSource is a test double that lets tests inject pulses.
type FakeEdgeSource struct {
	mu      sync.Mutex
	handler EdgeHandler

	// High is returned by Level.
	High bool

	// WatchError, if set, will be returned by Watch.
	WatchError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeEdgeSource creates an unwatched FakeEdgeSource.
func NewFakeEdgeSource() *FakeEdgeSource {
	return &FakeEdgeSource{}
}

// Watch stores the handler.
func (f *FakeEdgeSource) Watch(h EdgeHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WatchError != nil {
		return f.WatchError
	}
	if f.handler != nil {
		return errors.New("already watched")
	}
	f.handler = h
	return nil
}

// Watched reports whether a handler is installed.
func (f *FakeEdgeSource) Watched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil
}

// Edge delivers one transition. It is a no-op when nothing is watching,
// like a line that was never requested.
func (f *FakeEdgeSource) Edge(rising bool, tsMicros uint32) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(rising, tsMicros)
	}
}

// Pulse delivers a rising edge at startUs and a falling edge widthUs later.
func (f *FakeEdgeSource) Pulse(startUs, widthUs uint32) {
	f.Edge(true, startUs)
	f.Edge(false, startUs+widthUs)
}

// Level returns High.
func (f *FakeEdgeSource) Level() (bool, error) {
	return f.High, nil
}

// Close removes the handler.
func (f *FakeEdgeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = nil
	f.Closed = true
	return nil
}

// FakeInput is a test double for the fail-safe pin.
type FakeInput struct {
	// High is the pin level returned by Read.
	High bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called
	Closed bool
}

// Read returns the scripted level.
func (f *FakeInput) Read() (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.High, nil
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.Closed = true
	return nil
}

// FakeRGB records every color written.
type FakeRGB struct {
	mu     sync.Mutex
	writes []blink.Color

	// WriteError, if set, will be returned by Write.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeRGB creates an empty FakeRGB.
func NewFakeRGB() *FakeRGB {
	return &FakeRGB{}
}

// Write records c.
func (f *FakeRGB) Write(c blink.Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.writes = append(f.writes, c)
	return nil
}

// Writes returns a copy of all recorded colors.
func (f *FakeRGB) Writes() []blink.Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]blink.Color(nil), f.writes...)
}

// Last returns the most recent color, or Off if nothing was written.
func (f *FakeRGB) Last() blink.Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writes) == 0 {
		return blink.Off
	}
	return f.writes[len(f.writes)-1]
}

// Close marks the output as closed.
func (f *FakeRGB) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeRGB) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
	f.Closed = false
	f.WriteError = nil
}
