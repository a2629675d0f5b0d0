package rc

import "github.com/sweeney/rc-indicator/internal/clock"

// Capture turns edge timestamps into pulse widths. Edge must only be called
// from one goroutine (the edge-event handler). It never blocks, allocates or
// logs.
type Capture struct {
	band  Band
	clock clock.Clock
	out   *Measurement

	riseUs uint32
	armed  bool
}

// NewCapture creates a Capture publishing into out. The clock stamps each
// published sample in milliseconds.
func NewCapture(band Band, c clock.Clock, out *Measurement) *Capture {
	return &Capture{band: band, clock: c, out: out}
}

// Edge records one transition. tsMicros is the transition time from any
// microsecond counter; only differences between edges are used, so a
// 32-bit wrap between rise and fall is harmless.
//
// A rising edge only stores the provisional start. A falling edge that
// follows a rising edge computes the width and publishes it if it lies in
// the band. Out-of-band widths are glitches and leave the previous sample in
// place.
func (c *Capture) Edge(rising bool, tsMicros uint32) {
	if rising {
		c.riseUs = tsMicros
		c.armed = true
		return
	}
	if !c.armed {
		return
	}
	c.armed = false

	w := tsMicros - c.riseUs
	if !c.band.Contains(w) {
		return
	}
	c.out.publish(Sample{WidthUs: w, CapturedAtMillis: c.clock.Millis()})
}
