package blink

import "fmt"

// Pattern is the closed set of indications the device can show.
type Pattern uint8

const (
	PatternOff Pattern = iota
	PatternUp
	PatternDown
	PatternHigh
	PatternLow
	PatternCenter
	PatternDistress
)

func (p Pattern) String() string {
	switch p {
	case PatternOff:
		return "OFF"
	case PatternUp:
		return "UP"
	case PatternDown:
		return "DOWN"
	case PatternHigh:
		return "HIGH"
	case PatternLow:
		return "LOW"
	case PatternCenter:
		return "CENTER"
	case PatternDistress:
		return "DISTRESS"
	}
	return fmt.Sprintf("Pattern(%d)", uint8(p))
}

// Step is one blink configuration. Toggles of 0 blinks forever.
type Step struct {
	Color    Color
	Toggles  uint32
	PeriodMs uint32
}

// Default cadence: three on/off pairs at 3 Hz.
const (
	DefaultPeriodMs = 1000 / 3
	DefaultToggles  = 3 * 2
)

// Table holds the step for every pattern except PatternOff.
type Table struct {
	Up       Step
	Down     Step
	High     Step
	Low      Step
	Center   Step
	Distress Step
}

// DefaultTable returns green/red finite blinks for discrete states, infinite
// zone blinks for continuous mode, and a finite red distress sequence.
func DefaultTable() Table {
	return Table{
		Up:       Step{Color: Green, Toggles: DefaultToggles, PeriodMs: DefaultPeriodMs},
		Down:     Step{Color: Red, Toggles: DefaultToggles, PeriodMs: DefaultPeriodMs},
		High:     Step{Color: Green, PeriodMs: 250},
		Low:      Step{Color: Red, PeriodMs: 250},
		Center:   Step{Color: Blue, PeriodMs: 1000},
		Distress: Step{Color: Red, Toggles: DefaultToggles, PeriodMs: DefaultPeriodMs},
	}
}

// Step returns the configured step for p. ok is false for PatternOff and
// unknown patterns.
func (t Table) Step(p Pattern) (Step, bool) {
	switch p {
	case PatternUp:
		return t.Up, true
	case PatternDown:
		return t.Down, true
	case PatternHigh:
		return t.High, true
	case PatternLow:
		return t.Low, true
	case PatternCenter:
		return t.Center, true
	case PatternDistress:
		return t.Distress, true
	}
	return Step{}, false
}

// Render switches s to pattern p at now.
func Render(s *Scheduler, now uint32, p Pattern, t Table) error {
	if p == PatternOff {
		return s.Stop()
	}
	step, ok := t.Step(p)
	if !ok {
		return fmt.Errorf("blink: unknown pattern %v", p)
	}
	return s.Start(now, step.Color, step.Toggles, step.PeriodMs)
}
