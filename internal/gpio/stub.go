//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/rc-indicator/internal/blink"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealEdgeSource is not available on non-Linux platforms.
type RealEdgeSource struct{}

// NewRealEdgeSource returns a source whose methods all fail.
func NewRealEdgeSource(chip string, offset int) *RealEdgeSource {
	return &RealEdgeSource{}
}

// Watch is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Watch(h EdgeHandler) error { return errUnsupported }

// Level is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Level() (bool, error) { return false, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (s *RealEdgeSource) Close() error { return nil }

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// NewRealInput returns an error on non-Linux platforms.
func NewRealInput(chip string, offset int) (*RealInput, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealInput) Read() (bool, error) { return false, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealInput) Close() error { return nil }

// RealRGB is not available on non-Linux platforms.
type RealRGB struct{}

// NewRealRGB returns an error on non-Linux platforms.
func NewRealRGB(chip string, offsets [3]int, activeLow bool) (*RealRGB, error) {
	return nil, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (r *RealRGB) Write(c blink.Color) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealRGB) Close() error { return nil }
