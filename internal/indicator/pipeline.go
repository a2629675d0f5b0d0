// Package indicator runs one evaluation tick of the RC indicator: snapshot
// the shared measurement, apply the policy and interpreter, detect the
// transition and drive the blink scheduler.
package indicator

import (
	"time"

	"github.com/sweeney/rc-indicator/internal/blink"
	"github.com/sweeney/rc-indicator/internal/clock"
	"github.com/sweeney/rc-indicator/internal/logic"
	"github.com/sweeney/rc-indicator/internal/rc"
)

// Pipeline is owned by the main loop. Other goroutines only see its output
// through the ValueCell.
type Pipeline struct {
	clock clock.Clock
	meas  *rc.Measurement
	eval  *logic.Evaluator
	sched *blink.Scheduler
	table blink.Table
	value *logic.ValueCell

	sample  rc.Sample
	nowMs   uint32
	pattern blink.Pattern
	safe    bool
}

// New creates a pipeline reading meas and rendering through sched.
// value starts out as the no-signal reading for the evaluator's mode.
func New(c clock.Clock, meas *rc.Measurement, eval *logic.Evaluator, sched *blink.Scheduler, table blink.Table, value *logic.ValueCell) *Pipeline {
	value.Store(logic.NoSignal(eval.Mode()))
	return &Pipeline{
		clock: c,
		meas:  meas,
		eval:  eval,
		sched: sched,
		table: table,
		value: value,
	}
}

// EnterSafe switches to the distress pattern and stops all RC processing for
// the life of the pipeline.
func (p *Pipeline) EnterSafe() error {
	p.safe = true
	p.pattern = blink.PatternDistress
	p.value.Store(logic.NoSignal(p.eval.Mode()))
	return blink.Render(p.sched, p.clock.Millis(), blink.PatternDistress, p.table)
}

// Safe reports whether EnterSafe was called.
func (p *Pipeline) Safe() bool {
	return p.safe
}

// Step runs one tick at wall time t. The snapshot is taken before the
// millisecond clock is read so a freshly captured pulse never looks older
// than it is. Render and tick errors are returned after the tick completes.
func (p *Pipeline) Step(t time.Time) (logic.Reading, *logic.Event, error) {
	if p.safe {
		return logic.NoSignal(p.eval.Mode()), nil, p.sched.Tick(p.clock.Millis())
	}

	p.sample = p.meas.Snapshot()
	nowMs := p.clock.Millis()
	p.nowMs = nowMs

	r, ev := p.eval.Process(logic.Input{Sample: p.sample, NowMs: nowMs, Time: t})
	p.value.Store(r)

	var renderErr error
	if ev != nil {
		p.pattern = PatternFor(ev.To)
		renderErr = blink.Render(p.sched, nowMs, p.pattern, p.table)
	}
	if err := p.sched.Tick(nowMs); err != nil {
		return r, ev, err
	}
	return r, ev, renderErr
}

// Sample returns the snapshot used by the last Step.
func (p *Pipeline) Sample() rc.Sample {
	return p.sample
}

// SampleAgeMs returns how old the last snapshot was when it was taken.
// ok is false if no pulse has been captured yet.
func (p *Pipeline) SampleAgeMs() (age uint32, ok bool) {
	if !p.sample.Received() {
		return 0, false
	}
	return p.nowMs - p.sample.CapturedAtMillis, true
}

// Value returns the cell the latest reading is published to.
func (p *Pipeline) Value() *logic.ValueCell {
	return p.value
}

// Pattern returns the pattern most recently rendered.
func (p *Pipeline) Pattern() blink.Pattern {
	return p.pattern
}

// Lit reports whether the indicator currently shows a color.
func (p *Pipeline) Lit() bool {
	return p.sched.Lit()
}

// Evaluator returns the evaluator for counters and heartbeats.
func (p *Pipeline) Evaluator() *logic.Evaluator {
	return p.eval
}

// PatternFor selects the indication for a reading. Losing the signal always
// goes dark.
func PatternFor(r logic.Reading) blink.Pattern {
	if !r.Signal {
		return blink.PatternOff
	}
	if r.Mode == logic.ModeContinuous {
		switch r.State {
		case logic.StateUp:
			return blink.PatternHigh
		case logic.StateDown:
			return blink.PatternLow
		default:
			return blink.PatternCenter
		}
	}
	switch r.State {
	case logic.StateUp:
		return blink.PatternUp
	case logic.StateDown:
		return blink.PatternDown
	default:
		return blink.PatternOff
	}
}
