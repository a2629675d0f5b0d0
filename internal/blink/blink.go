// Package blink drives the RGB indicator through non-blocking blink patterns.
//
// The Scheduler never sleeps. The owner calls Tick on every loop iteration
// with the current millisecond counter; deadlines sit on a fixed grid of
// period multiples from Start, so a late Tick never shifts later toggles.
package blink

// Color is the on-state of the three indicator channels.
type Color struct {
	R, G, B bool
}

var (
	Off   = Color{}
	Red   = Color{R: true}
	Green = Color{G: true}
	Blue  = Color{B: true}
)

func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	s := ""
	if c.R {
		s += "r"
	}
	if c.G {
		s += "g"
	}
	if c.B {
		s += "b"
	}
	return s
}

// Output applies a color to the physical indicator. Polarity is the
// implementation's concern: Write(Off) always means dark.
type Output interface {
	Write(c Color) error
}

// Scheduler renders at most one pattern at a time. Not safe for concurrent
// use; it belongs to the loop that calls Tick.
type Scheduler struct {
	out Output

	color     Color
	remaining uint32
	infinite  bool
	periodMs  uint32
	next      uint32
	on        bool
	active    bool
}

// NewScheduler creates an idle scheduler writing to out.
func NewScheduler(out Output) *Scheduler {
	return &Scheduler{out: out}
}

// Start replaces any running pattern. The output goes dark immediately and
// the first toggle (to on) happens one period after now. toggles counts
// single on/off flips; 0 means blink until replaced or stopped.
func (s *Scheduler) Start(now uint32, c Color, toggles, periodMs uint32) error {
	if periodMs == 0 {
		periodMs = 1
	}
	s.color = c
	s.remaining = toggles
	s.infinite = toggles == 0
	s.periodMs = periodMs
	s.next = now + periodMs
	s.on = false
	s.active = true
	return s.out.Write(Off)
}

// Stop forces the output dark and idles the scheduler.
func (s *Scheduler) Stop() error {
	s.active = false
	s.on = false
	return s.out.Write(Off)
}

// Tick performs at most one toggle. If one or more deadlines have passed, the
// next deadline moves to the first grid point after now.
func (s *Scheduler) Tick(now uint32) error {
	if !s.active {
		return nil
	}
	late := now - s.next
	if int32(late) < 0 {
		return nil
	}
	s.next += (late/s.periodMs + 1) * s.periodMs

	s.on = !s.on
	c := Off
	if s.on {
		c = s.color
	}
	err := s.out.Write(c)

	if s.infinite {
		return err
	}
	s.remaining--
	if s.remaining == 0 {
		s.active = false
		s.on = false
		if werr := s.out.Write(Off); err == nil {
			err = werr
		}
	}
	return err
}

// Active reports whether a pattern is running.
func (s *Scheduler) Active() bool {
	return s.active
}

// Lit reports whether the pattern's color is currently shown.
func (s *Scheduler) Lit() bool {
	return s.active && s.on
}

// Color returns the color of the current or last pattern.
func (s *Scheduler) Color() Color {
	return s.color
}
