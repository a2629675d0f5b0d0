package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/rc-indicator/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Mode          string        `json:"mode"`
	Failsafe      string        `json:"failsafe"`
	Indicator     IndicatorJSON `json:"indicator"`
	Watchdog      WatchdogJSON  `json:"watchdog"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// IndicatorJSON is the interpreted channel and what the LED shows.
type IndicatorJSON struct {
	State       string           `json:"state"`
	Signal      bool             `json:"signal"`
	Percent     *int             `json:"percent,omitempty"`
	WidthUs     *uint32          `json:"width_us,omitempty"`
	SampleAgeMs *uint32          `json:"sample_age_ms,omitempty"`
	Pattern     string           `json:"pattern"`
	Lit         bool             `json:"lit"`
	Calibration *CalibrationJSON `json:"calibration,omitempty"`
}

// CalibrationJSON is the observed range in continuous mode.
type CalibrationJSON struct {
	MinUs       uint32 `json:"min_us"`
	MaxUs       uint32 `json:"max_us"`
	Established bool   `json:"established"`
}

// WatchdogJSON reports the watchdog kicker.
type WatchdogJSON struct {
	Enabled bool `json:"enabled"`
	Stalled bool `json:"stalled"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Queued    int    `json:"queued"`
	Dropped   int    `json:"dropped"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Up         int `json:"up"`
	Down       int `json:"down"`
	Idle       int `json:"idle"`
	SignalLost int `json:"signal_lost"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	MinUs       uint32 `json:"min_us"`
	MaxUs       uint32 `json:"max_us"`
	TimeoutMs   uint32 `json:"timeout_ms"`
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

// FailsafeString renders the fail-safe mode.
func FailsafeString(safe bool) string {
	if safe {
		return "SAFE"
	}
	return "NORMAL"
}

func buildIndicator(ind Indicator) IndicatorJSON {
	state := string(ind.Reading.State)
	if state == "" {
		state = "UNKNOWN"
	}
	out := IndicatorJSON{
		State:   state,
		Signal:  ind.Reading.Signal,
		Pattern: ind.Pattern,
		Lit:     ind.Lit,
	}
	if out.Pattern == "" {
		out.Pattern = "OFF"
	}
	if ind.Reading.Signal && ind.Reading.Mode == logic.ModeContinuous {
		p := ind.Reading.Percent
		out.Percent = &p
	}
	if ind.HasSample {
		w, age := ind.WidthUs, ind.SampleAgeMs
		out.WidthUs = &w
		out.SampleAgeMs = &age
	}
	if ind.Calibration != nil {
		out.Calibration = &CalibrationJSON{
			MinUs:       ind.Calibration.MinUs,
			MaxUs:       ind.Calibration.MaxUs,
			Established: ind.Calibration.Established,
		}
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Mode:          snap.Config.Mode,
		Failsafe:      FailsafeString(snap.Safe),
		Indicator:     buildIndicator(snap.Indicator),
		Watchdog:      WatchdogJSON{Enabled: snap.Config.Watchdog, Stalled: snap.WatchdogStalled},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Queued:    snap.MQTTQueued,
			Dropped:   snap.MQTTDropped,
		},
		Counts: CountsJSON{
			Up:         snap.Counts.Up,
			Down:       snap.Counts.Down,
			Idle:       snap.Counts.Idle,
			SignalLost: snap.Counts.Lost,
		},
		Config: ConfigJSON{
			MinUs:       snap.Config.MinUs,
			MaxUs:       snap.Config.MaxUs,
			TimeoutMs:   snap.Config.TimeoutMs,
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
