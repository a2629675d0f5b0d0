package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sweeney/rc-indicator/internal/blink"
	"github.com/sweeney/rc-indicator/internal/logic"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := NewConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if got := cfg.Table(); got != blink.DefaultTable() {
		t.Errorf("default table round trip: got %+v", got)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != "discrete" || cfg.Signal.TimeoutMs != 300 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
mode: continuous
signal:
  timeout_ms: 500
continuous:
  deadband_pct: 5
patterns:
  center:
    color: rg
    period_ms: 700
gpio:
  led:
    red: 25
    green: 25
    blue: 25
    active_low: true
mqtt:
  heartbeat: 1m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if cfg.Mode != "continuous" {
		t.Errorf("mode: got %q", cfg.Mode)
	}
	if cfg.Signal.TimeoutMs != 500 {
		t.Errorf("timeout: got %d", cfg.Signal.TimeoutMs)
	}
	if cfg.Signal.MinUs != 800 {
		t.Errorf("min_us should keep default, got %d", cfg.Signal.MinUs)
	}
	if cfg.Continuous.Window != 32 || cfg.Continuous.DeadbandPc != 5 {
		t.Errorf("continuous: got %+v", cfg.Continuous)
	}
	if cfg.MQTT.Heartbeat.Minutes() != 1 {
		t.Errorf("heartbeat: got %v", cfg.MQTT.Heartbeat)
	}
	if !cfg.GPIO.LED.ActiveLow || cfg.LEDPins() != [3]int{25, 25, 25} {
		t.Errorf("led: got %+v", cfg.GPIO.LED)
	}

	tbl := cfg.Table()
	if tbl.Center.Color != (blink.Color{R: true, G: true}) || tbl.Center.PeriodMs != 700 {
		t.Errorf("center: got %+v", tbl.Center)
	}
	if cfg.Interpreter().Mode() != logic.ModeContinuous {
		t.Error("expected continuous interpreter")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "signal:\n  timeout: 5\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad mode", func(c *Config) { c.Mode = "analog" }, "mode"},
		{"inverted band", func(c *Config) { c.Signal.MinUs = 2500 }, "min_us"},
		{"zero timeout", func(c *Config) { c.Signal.TimeoutMs = 0 }, "timeout_ms"},
		{"thresholds crossed", func(c *Config) { c.Discrete.DownMaxUs = 1800 }, "down_max_us"},
		{"thresholds outside band", func(c *Config) { c.Discrete.UpMinUs = 2300 }, "outside band"},
		{"zero window", func(c *Config) { c.Continuous.Window = 0 }, "window"},
		{"odd buckets", func(c *Config) { c.Continuous.Buckets = 201 }, "buckets"},
		{"deadband", func(c *Config) { c.Continuous.DeadbandPc = 100 }, "deadband"},
		{"bad color", func(c *Config) { c.Patterns.Up.Color = "purple" }, "patterns.up"},
		{"zero period", func(c *Config) { c.Patterns.Low.PeriodMs = 0 }, "patterns.low"},
		{"infinite distress", func(c *Config) { c.Patterns.Distress.Toggles = 0 }, "distress"},
		{"zero tick", func(c *Config) { c.Loop.TickMs = 0 }, "tick_ms"},
		{"stall below tick", func(c *Config) { c.Watchdog.StallMs = 5 }, "stall_ms"},
		{"rc equals safe", func(c *Config) { c.GPIO.SafePin = c.GPIO.RCPin }, "rc_pin"},
		{"led on input", func(c *Config) { c.GPIO.LED.Blue = c.GPIO.RCPin }, "collides"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateSkipsDisabledWatchdog(t *testing.T) {
	cfg := NewConfig()
	cfg.Watchdog.Enabled = false
	cfg.Watchdog.Device = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("disabled watchdog should not be validated: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	cfg := NewConfig()
	cfg.MQTT.QueueLength = 0
	cfg.MQTT.Broker = "OFF"
	Normalize(cfg)
	if cfg.MQTT.QueueLength != 1 {
		t.Errorf("queue length: got %d, want 1", cfg.MQTT.QueueLength)
	}
	if cfg.MQTT.Broker != "" {
		t.Errorf("broker: got %q, want empty", cfg.MQTT.Broker)
	}
	Normalize(nil)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    blink.Color
		wantErr bool
	}{
		{"off", blink.Off, false},
		{"red", blink.Red, false},
		{"green", blink.Green, false},
		{"blue", blink.Blue, false},
		{"rgb", blink.Color{R: true, G: true, B: true}, false},
		{"gb", blink.Color{G: true, B: true}, false},
		{"", blink.Off, true},
		{"x", blink.Off, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error: got %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q): got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
