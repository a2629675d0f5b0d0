package logic

import "github.com/sweeney/rc-indicator/internal/rc"

// Continuous strategy defaults.
const (
	DefaultWindow     = 32
	DefaultBuckets    = 200
	DefaultDeadbandPc = 10
)

// FilterWindow is a fixed-size ring of raw widths. Empty slots are zero and
// do not count towards the mean.
type FilterWindow struct {
	slots  []uint32
	cursor int
}

// NewFilterWindow creates a window of n slots.
func NewFilterWindow(n int) *FilterWindow {
	return &FilterWindow{slots: make([]uint32, n)}
}

// Push overwrites the oldest slot.
func (f *FilterWindow) Push(w uint32) {
	f.slots[f.cursor] = w
	f.cursor = (f.cursor + 1) % len(f.slots)
}

// Mean returns the average of the populated slots, or 0 if none are.
func (f *FilterWindow) Mean() uint32 {
	var sum uint64
	var n uint64
	for _, v := range f.slots {
		if v == 0 {
			continue
		}
		sum += uint64(v)
		n++
	}
	if n == 0 {
		return 0
	}
	return uint32(sum / n)
}

// Calibration is the observed range of filtered widths. It only widens.
type Calibration struct {
	MinUs uint32
	MaxUs uint32
	seen  bool
}

// Widen extends the range to include v.
func (c *Calibration) Widen(v uint32) {
	if !c.seen {
		c.MinUs, c.MaxUs, c.seen = v, v, true
		return
	}
	if v < c.MinUs {
		c.MinUs = v
	}
	if v > c.MaxUs {
		c.MaxUs = v
	}
}

// Established reports whether the range spans more than a single value.
func (c Calibration) Established() bool {
	return c.seen && c.MaxUs > c.MinUs
}

// Calibrator is the continuous strategy: moving average, auto-calibrated
// range and bucketed percentage.
type Calibrator struct {
	window     *FilterWindow
	cal        Calibration
	buckets    uint64
	deadbandPc int
	filtered   uint32
}

// NewCalibrator creates a continuous interpreter. buckets is the number of
// equal steps across the observed span; deadbandPc is the half-width of the
// CENTER zone in percent.
func NewCalibrator(window, buckets, deadbandPc int) *Calibrator {
	return &Calibrator{
		window:     NewFilterWindow(window),
		buckets:    uint64(buckets),
		deadbandPc: deadbandPc,
	}
}

// Mode implements Interpreter.
func (c *Calibrator) Mode() Mode { return ModeContinuous }

// Calibration returns the current observed range.
func (c *Calibrator) Calibration() Calibration { return c.cal }

// Filtered returns the last moving-average value.
func (c *Calibrator) Filtered() uint32 { return c.filtered }

// Interpret implements Interpreter. Invalid input never touches the window
// or the calibration.
func (c *Calibrator) Interpret(s rc.Sample, valid bool) Reading {
	if !valid {
		return NoSignal(ModeContinuous)
	}
	c.window.Push(s.WidthUs)
	c.filtered = c.window.Mean()
	c.cal.Widen(c.filtered)

	pct, ok := c.Percent(c.filtered)
	if !ok {
		return NoSignal(ModeContinuous)
	}
	return Reading{Mode: ModeContinuous, State: c.zone(pct), Percent: pct, Signal: true}
}

// Percent maps v onto [-100, 100] using the current calibration. The bucket
// index is computed as (v-min)*buckets/span so spans narrower than the
// bucket count still resolve. ok is false until the span is established.
func (c *Calibrator) Percent(v uint32) (pct int, ok bool) {
	if !c.cal.Established() {
		return 0, false
	}
	if v < c.cal.MinUs {
		v = c.cal.MinUs
	}
	span := uint64(c.cal.MaxUs - c.cal.MinUs)
	idx := uint64(v-c.cal.MinUs) * c.buckets / span
	pct = int(idx*200/c.buckets) - 100
	if pct < -100 {
		pct = -100
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

func (c *Calibrator) zone(pct int) State {
	switch {
	case pct > c.deadbandPc:
		return StateUp
	case pct < -c.deadbandPc:
		return StateDown
	default:
		return StateIdle
	}
}
