package logic

import "sync/atomic"

// ValueCell publishes the latest Reading from the evaluation loop to other
// goroutines as a single atomic word. One writer, any number of readers.
type ValueCell struct {
	word atomic.Uint32
}

const (
	flagSignal     = 1 << 16
	flagContinuous = 1 << 17
)

// Store publishes r.
func (c *ValueCell) Store(r Reading) {
	c.word.Store(encodeReading(r))
}

// Load returns the last published reading. Before the first Store it is the
// discrete no-signal sentinel.
func (c *ValueCell) Load() Reading {
	return decodeReading(c.word.Load())
}

func encodeReading(r Reading) uint32 {
	v := uint32(uint8(int8(r.Percent)))
	switch r.State {
	case StateUp:
		v |= 1 << 8
	case StateDown:
		v |= 2 << 8
	}
	if r.Signal {
		v |= flagSignal
	}
	if r.Mode == ModeContinuous {
		v |= flagContinuous
	}
	return v
}

func decodeReading(v uint32) Reading {
	r := Reading{
		Mode:    ModeDiscrete,
		State:   StateIdle,
		Percent: int(int8(uint8(v))),
		Signal:  v&flagSignal != 0,
	}
	switch (v >> 8) & 0xFF {
	case 1:
		r.State = StateUp
	case 2:
		r.State = StateDown
	}
	if v&flagContinuous != 0 {
		r.Mode = ModeContinuous
	}
	return r
}
