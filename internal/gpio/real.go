//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sweeney/rc-indicator/internal/blink"
	"github.com/warthog618/go-gpiocdev"
)

// RealEdgeSource watches the RC input line for both edges.
type RealEdgeSource struct {
	chip   string
	offset int

	mu   sync.Mutex
	line *gpiocdev.Line
}

// NewRealEdgeSource prepares an edge source. No line is requested until
// Watch or Level, so an unarmed source never holds the line.
func NewRealEdgeSource(chip string, offset int) *RealEdgeSource {
	return &RealEdgeSource{chip: chip, offset: offset}
}

// Watch requests the line with pull-down and both-edge detection. Edge
// timestamps come from the kernel's monotonic event clock.
func (s *RealEdgeSource) Watch(h EdgeHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.line != nil {
		return errors.New("gpio: rc line already watched")
	}
	line, err := gpiocdev.RequestLine(s.chip, s.offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			h(evt.Type == gpiocdev.LineEventRisingEdge, uint32(evt.Timestamp.Microseconds()))
		}))
	if err != nil {
		return fmt.Errorf("request rc pin %d: %w", s.offset, err)
	}
	s.line = line
	return nil
}

// Level reads the line. If the line is not watched it is requested for the
// read only.
func (s *RealEdgeSource) Level() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.line
	if line == nil {
		l, err := gpiocdev.RequestLine(s.chip, s.offset, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			return false, fmt.Errorf("request rc pin %d: %w", s.offset, err)
		}
		defer l.Close()
		line = l
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read rc pin: %w", err)
	}
	return v == 1, nil
}

// Close releases the line, waiting for a running handler to return.
func (s *RealEdgeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.line == nil {
		return nil
	}
	err := s.line.Close()
	s.line = nil
	if err != nil {
		return fmt.Errorf("close rc pin: %w", err)
	}
	return nil
}

// RealInput is the pulled-up fail-safe input.
type RealInput struct {
	line *gpiocdev.Line
}

// NewRealInput requests offset as input with pull-up.
func NewRealInput(chip string, offset int) (*RealInput, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request safe pin %d: %w", offset, err)
	}
	return &RealInput{line: line}, nil
}

// Read returns true when the pin is high (jumper open).
func (r *RealInput) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read safe pin: %w", err)
	}
	return v == 1, nil
}

// Close releases the line.
func (r *RealInput) Close() error {
	return r.line.Close()
}

// RealRGB drives the indicator lines. Active-low wiring is handled by the
// kernel, so values written here are always logical.
type RealRGB struct {
	offsets [3]int
	lines   *gpiocdev.Lines
}

// NewRealRGB requests the red, green and blue offsets as outputs, initially
// dark. Repeated offsets are requested once.
func NewRealRGB(chip string, offsets [3]int, activeLow bool) (*RealRGB, error) {
	unique, values := channelValues(offsets, blink.Off)
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(values...)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	lines, err := gpiocdev.RequestLines(chip, unique, opts...)
	if err != nil {
		return nil, fmt.Errorf("request led pins %v: %w", unique, err)
	}
	return &RealRGB{offsets: offsets, lines: lines}, nil
}

// Write applies c.
func (r *RealRGB) Write(c blink.Color) error {
	_, values := channelValues(r.offsets, c)
	if err := r.lines.SetValues(values); err != nil {
		return fmt.Errorf("write led: %w", err)
	}
	return nil
}

// Close turns the indicator off, returns the lines to inputs and releases
// them.
func (r *RealRGB) Close() error {
	var errs []error

	if err := r.Write(blink.Off); err != nil {
		errs = append(errs, err)
	}
	if err := r.lines.Reconfigure(gpiocdev.AsInput); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure led pins: %w", err))
	}
	if err := r.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close led pins: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
