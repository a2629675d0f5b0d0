// Package status provides a thread-safe status tracker for the rc-indicator daemon.
// It is written by the control loop and read by HTTP handlers and MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/rc-indicator/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Mode        string
	MinUs       uint32
	MaxUs       uint32
	TimeoutMs   uint32
	TickMs      int64
	HeartbeatMs int64
	Watchdog    bool
	Broker      string
	HTTPAddr    string
}

// QueueStats reports the state of the outbound MQTT queue.
type QueueStats interface {
	Len() int
	Dropped() int
}

// Calibration is the observed pulse range in continuous mode.
type Calibration struct {
	MinUs       uint32
	MaxUs       uint32
	Established bool
}

// Indicator is the control loop's view of the channel on its last tick.
type Indicator struct {
	Reading     logic.Reading
	WidthUs     uint32
	HasSample   bool
	SampleAgeMs uint32
	Pattern     string
	Lit         bool
	Calibration *Calibration
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and stays valid after the lock is released.
type Snapshot struct {
	Indicator       Indicator
	Safe            bool
	WatchdogStalled bool
	Counts          logic.EventCounts
	StartTime       time.Time
	Now             time.Time
	MQTTConnected   bool
	MQTTQueued      int
	MQTTDropped     int
	Network         *NetworkInfo
	Config          Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	live  *logic.ValueCell
	queue QueueStats
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Indicator: Indicator{Reading: logic.NoSignal(logic.Mode(cfg.Mode))},
		},
	}
}

// Update sets the indicator view and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(ind Indicator, counts logic.EventCounts) {
	if ind.Calibration != nil {
		c := *ind.Calibration
		ind.Calibration = &c
	}
	t.mu.Lock()
	t.snap.Indicator = ind
	t.snap.Counts = counts
	t.mu.Unlock()
}

// ReadFrom makes Snapshot take the reading from cell rather than from the
// last Update, so readers see the value published on the latest tick.
func (t *Tracker) ReadFrom(cell *logic.ValueCell) {
	t.mu.Lock()
	t.live = cell
	t.mu.Unlock()
}

// WatchQueue makes Snapshot report the queue depth and drop count of q.
func (t *Tracker) WatchQueue(q QueueStats) {
	t.mu.Lock()
	t.queue = q
	t.mu.Unlock()
}

// SetSafe records that the fail-safe jumper forced distress mode.
func (t *Tracker) SetSafe(safe bool) {
	t.mu.Lock()
	t.snap.Safe = safe
	t.mu.Unlock()
}

// SetWatchdogStalled records whether watchdog pings are being withheld.
func (t *Tracker) SetWatchdogStalled(stalled bool) {
	t.mu.Lock()
	t.snap.WatchdogStalled = stalled
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	live, queue := t.live, t.queue
	t.mu.RUnlock()
	if live != nil {
		s.Indicator.Reading = live.Load()
	}
	if queue != nil {
		s.MQTTQueued = queue.Len()
		s.MQTTDropped = queue.Dropped()
	}
	s.Now = time.Now()
	return s
}
