// Package gpio provides GPIO access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/rc-indicator/internal/blink"

// DefaultChip is the Raspberry Pi header GPIO chip.
const DefaultChip = "gpiochip0"

// Pin definitions (BCM numbering)
const (
	DefaultPinRC   = 17 // RC receiver PWM channel
	DefaultPinSafe = 27 // Fail-safe jumper to GND
	DefaultPinRed  = 22
	DefaultPinGrn  = 23
	DefaultPinBlu  = 24
)

// EdgeHandler receives one transition. It runs on the edge-event goroutine
// and must not block.
type EdgeHandler func(rising bool, tsMicros uint32)

// EdgeSource delivers both-edge events from the RC input line.
type EdgeSource interface {
	// Watch starts delivering edges to h. Only one watcher is allowed.
	Watch(h EdgeHandler) error
	// Level reads the current line level (true = high).
	Level() (bool, error)
	// Close stops delivery and releases the line.
	Close() error
}

// Input is a single pulled-up input read on demand.
type Input interface {
	Read() (bool, error)
	Close() error
}

// RGB drives the indicator. It satisfies blink.Output.
type RGB interface {
	blink.Output
	Close() error
}

// channelValues maps a color onto per-offset line values. Offsets shared by
// several channels (single-color indicators) light if any of them is on.
func channelValues(offsets [3]int, c blink.Color) (unique []int, values []int) {
	on := [3]bool{c.R, c.G, c.B}
	idx := make(map[int]int, 3)
	for i, off := range offsets {
		j, ok := idx[off]
		if !ok {
			j = len(unique)
			idx[off] = j
			unique = append(unique, off)
			values = append(values, 0)
		}
		if on[i] {
			values[j] = 1
		}
	}
	return unique, values
}
