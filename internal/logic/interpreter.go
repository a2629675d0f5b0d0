package logic

import "github.com/sweeney/rc-indicator/internal/rc"

// Interpreter converts a measurement into a Reading. Implementations are
// owned by the evaluation loop and are not safe for concurrent use.
type Interpreter interface {
	Mode() Mode
	// Interpret must return the NoSignal sentinel when valid is false.
	Interpret(s rc.Sample, valid bool) Reading
}

// Discrete thresholds with a dead band between them.
const (
	DefaultDownMaxUs = 1300
	DefaultUpMinUs   = 1700
)

// Thresholds are closed: DOWN at or below DownMaxUs, UP at or above UpMinUs.
type Thresholds struct {
	DownMaxUs uint32
	UpMinUs   uint32
}

// Classifier is the discrete strategy.
type Classifier struct {
	t Thresholds
}

// NewClassifier creates a discrete classifier.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Classify maps a width onto UP, DOWN or IDLE.
func (c *Classifier) Classify(w uint32) State {
	if w >= c.t.UpMinUs {
		return StateUp
	}
	if w <= c.t.DownMaxUs {
		return StateDown
	}
	return StateIdle
}

// Mode implements Interpreter.
func (c *Classifier) Mode() Mode { return ModeDiscrete }

// Interpret implements Interpreter.
func (c *Classifier) Interpret(s rc.Sample, valid bool) Reading {
	if !valid {
		return NoSignal(ModeDiscrete)
	}
	return Reading{Mode: ModeDiscrete, State: c.Classify(s.WidthUs), Signal: true}
}
