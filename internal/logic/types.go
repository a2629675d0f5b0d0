// Package logic contains the pure signal interpretation for the RC indicator.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via parameters.
package logic

import (
	"time"

	"github.com/sweeney/rc-indicator/internal/rc"
)

// Mode selects the interpretation strategy.
type Mode string

const (
	ModeDiscrete   Mode = "discrete"
	ModeContinuous Mode = "continuous"
)

// State is the tri-state classification of the channel.
// In continuous mode it is the zone of the percentage around center.
type State string

const (
	StateIdle State = "IDLE"
	StateUp   State = "UP"
	StateDown State = "DOWN"
)

// Reading is the interpreted value of one evaluation tick.
// Signal is false for the no-signal sentinel; State is then always IDLE and
// Percent carries no information.
type Reading struct {
	Mode    Mode
	State   State
	Percent int
	Signal  bool
}

// NoSignal returns the sentinel reading for the given mode.
func NoSignal(m Mode) Reading {
	return Reading{Mode: m, State: StateIdle}
}

// EventType represents a change of the interpreted value.
type EventType string

const (
	EventUp         EventType = "UP"
	EventDown       EventType = "DOWN"
	EventIdle       EventType = "IDLE"
	EventSignalLost EventType = "SIGNAL_LOST"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      Reading
	To        Reading
}

// Input is one evaluation tick: a snapshot of the shared measurement and the
// time it was taken at.
type Input struct {
	Sample rc.Sample
	NowMs  uint32
	Time   time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Up   int
	Down int
	Idle int
	Lost int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
