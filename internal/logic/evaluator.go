package logic

import "time"

// Evaluator applies the policy and interpreter on every tick and detects
// transitions of the interpreted value.
type Evaluator struct {
	policy        Policy
	interp        Interpreter
	current       Reading
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewEvaluator creates an evaluator. It starts from the no-signal sentinel,
// so the first valid reading is reported as a transition.
// The startTime is used for calculating uptime in heartbeat events.
func NewEvaluator(policy Policy, interp Interpreter, startTime time.Time) *Evaluator {
	return &Evaluator{
		policy:        policy,
		interp:        interp,
		current:       NoSignal(interp.Mode()),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process interprets one snapshot. It returns the reading and, if the state
// or signal presence changed since the previous tick, the transition event.
// Percentage changes within a zone are not transitions.
func (e *Evaluator) Process(in Input) (Reading, *Event) {
	valid := e.policy.IsValid(in.Sample, in.NowMs)
	r := e.interp.Interpret(in.Sample, valid)

	prev := e.current
	e.current = r
	if r.State == prev.State && r.Signal == prev.Signal {
		return r, nil
	}

	ev := &Event{
		Timestamp: in.Time,
		Type:      eventTypeFor(prev, r),
		From:      prev,
		To:        r,
	}
	switch ev.Type {
	case EventUp:
		e.eventCounts.Up++
	case EventDown:
		e.eventCounts.Down++
	case EventIdle:
		e.eventCounts.Idle++
	case EventSignalLost:
		e.eventCounts.Lost++
	}
	return r, ev
}

func eventTypeFor(from, to Reading) EventType {
	if !to.Signal {
		if from.Signal {
			return EventSignalLost
		}
		return EventIdle
	}
	switch to.State {
	case StateUp:
		return EventUp
	case StateDown:
		return EventDown
	default:
		return EventIdle
	}
}

// Current returns the reading of the last tick.
func (e *Evaluator) Current() Reading {
	return e.current
}

// Mode returns the interpretation strategy in use.
func (e *Evaluator) Mode() Mode {
	return e.interp.Mode()
}

// Calibration returns the observed range when the continuous strategy is in
// use.
func (e *Evaluator) Calibration() (Calibration, bool) {
	c, ok := e.interp.(*Calibrator)
	if !ok {
		return Calibration{}, false
	}
	return c.Calibration(), true
}

// EventCountsSnapshot returns a copy of the event counters.
func (e *Evaluator) EventCountsSnapshot() EventCounts {
	return e.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// is <= 0 (disabled).
func (e *Evaluator) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(e.lastHeartbeat) < interval {
		return nil
	}
	e.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(e.startTime),
		Counts:    e.eventCounts,
	}
}
