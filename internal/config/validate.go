package config

import (
	"fmt"

	"github.com/sweeney/rc-indicator/internal/logic"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	switch logic.Mode(cfg.Mode) {
	case logic.ModeDiscrete, logic.ModeContinuous:
	default:
		return fmt.Errorf("mode %q: must be %q or %q", cfg.Mode, logic.ModeDiscrete, logic.ModeContinuous)
	}

	// ------------------------------------------------------------
	// SIGNAL
	// ------------------------------------------------------------

	s := cfg.Signal
	if s.MinUs == 0 || s.MinUs >= s.MaxUs {
		return fmt.Errorf("signal: min_us=%d max_us=%d: need 0 < min_us < max_us", s.MinUs, s.MaxUs)
	}
	if s.TimeoutMs == 0 {
		return fmt.Errorf("signal: timeout_ms must be > 0")
	}

	d := cfg.Discrete
	if d.DownMaxUs >= d.UpMinUs {
		return fmt.Errorf("discrete: down_max_us=%d must be below up_min_us=%d", d.DownMaxUs, d.UpMinUs)
	}
	if d.DownMaxUs < s.MinUs || d.UpMinUs > s.MaxUs {
		return fmt.Errorf("discrete: thresholds %d/%d outside band %d-%d", d.DownMaxUs, d.UpMinUs, s.MinUs, s.MaxUs)
	}

	c := cfg.Continuous
	if c.Window < 1 {
		return fmt.Errorf("continuous: window must be >= 1")
	}
	if c.Buckets < 2 || c.Buckets%2 != 0 {
		return fmt.Errorf("continuous: buckets=%d must be an even number >= 2", c.Buckets)
	}
	if c.DeadbandPc < 0 || c.DeadbandPc >= 100 {
		return fmt.Errorf("continuous: deadband_pct=%d must be in [0, 100)", c.DeadbandPc)
	}

	// ------------------------------------------------------------
	// PATTERNS
	// ------------------------------------------------------------

	steps := map[string]StepConfig{
		"up":       cfg.Patterns.Up,
		"down":     cfg.Patterns.Down,
		"high":     cfg.Patterns.High,
		"low":      cfg.Patterns.Low,
		"center":   cfg.Patterns.Center,
		"distress": cfg.Patterns.Distress,
	}
	for name, st := range steps {
		if _, err := ParseColor(st.Color); err != nil {
			return fmt.Errorf("patterns.%s: %w", name, err)
		}
		if st.PeriodMs == 0 {
			return fmt.Errorf("patterns.%s: period_ms must be > 0", name)
		}
	}
	if cfg.Patterns.Distress.Toggles == 0 {
		return fmt.Errorf("patterns.distress: toggles must be > 0 (distress is finite)")
	}

	// ------------------------------------------------------------
	// LOOP / WATCHDOG
	// ------------------------------------------------------------

	if cfg.Loop.TickMs < 1 {
		return fmt.Errorf("loop: tick_ms must be >= 1")
	}
	if cfg.Watchdog.Enabled {
		w := cfg.Watchdog
		if w.Device == "" {
			return fmt.Errorf("watchdog: device is required when enabled")
		}
		if w.KickMs < 1 {
			return fmt.Errorf("watchdog: kick_ms must be >= 1")
		}
		if w.StallMs <= cfg.Loop.TickMs {
			return fmt.Errorf("watchdog: stall_ms=%d must exceed loop tick_ms=%d", w.StallMs, cfg.Loop.TickMs)
		}
	}

	// ------------------------------------------------------------
	// GPIO
	// ------------------------------------------------------------

	g := cfg.GPIO
	if g.Chip == "" {
		return fmt.Errorf("gpio: chip is required")
	}
	if g.RCPin == g.SafePin {
		return fmt.Errorf("gpio: rc_pin and safe_pin are both %d", g.RCPin)
	}
	for _, led := range cfg.LEDPins() {
		if led == g.RCPin || led == g.SafePin {
			return fmt.Errorf("gpio: led pin %d collides with an input pin", led)
		}
	}

	if cfg.MQTT.QueueLength < 0 {
		return fmt.Errorf("mqtt: queue_length must be >= 0")
	}

	return nil
}
