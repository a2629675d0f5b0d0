// Package config loads the indicator configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/rc-indicator/internal/blink"
	"github.com/sweeney/rc-indicator/internal/gpio"
	"github.com/sweeney/rc-indicator/internal/logic"
	"github.com/sweeney/rc-indicator/internal/rc"
	"github.com/sweeney/rc-indicator/internal/watchdog"
)

// Config is the whole daemon configuration.
type Config struct {
	Mode       string           `yaml:"mode"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Signal     SignalConfig     `yaml:"signal"`
	Discrete   DiscreteConfig   `yaml:"discrete"`
	Continuous ContinuousConfig `yaml:"continuous"`
	Patterns   PatternsConfig   `yaml:"patterns"`
	Loop       LoopConfig       `yaml:"loop"`
	Watchdog   WatchdogConfig   `yaml:"watchdog"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// ---- GPIO ----

type GPIOConfig struct {
	Chip    string    `yaml:"chip"`
	RCPin   int       `yaml:"rc_pin"`
	SafePin int       `yaml:"safe_pin"`
	LED     LEDConfig `yaml:"led"`
}

// LEDConfig lists the indicator lines. Give the same pin for all three to
// drive a single-color LED.
type LEDConfig struct {
	Red       int  `yaml:"red"`
	Green     int  `yaml:"green"`
	Blue      int  `yaml:"blue"`
	ActiveLow bool `yaml:"active_low"`
}

// ---- SIGNAL ----

type SignalConfig struct {
	MinUs     uint32 `yaml:"min_us"`
	MaxUs     uint32 `yaml:"max_us"`
	TimeoutMs uint32 `yaml:"timeout_ms"`
}

type DiscreteConfig struct {
	DownMaxUs uint32 `yaml:"down_max_us"`
	UpMinUs   uint32 `yaml:"up_min_us"`
}

type ContinuousConfig struct {
	Window     int `yaml:"window"`
	Buckets    int `yaml:"buckets"`
	DeadbandPc int `yaml:"deadband_pct"`
}

// ---- PATTERNS ----

// StepConfig is one blink pattern. Color is one of off, red, green, blue,
// or any combination of the letters r, g and b.
type StepConfig struct {
	Color    string `yaml:"color"`
	Toggles  uint32 `yaml:"toggles"`
	PeriodMs uint32 `yaml:"period_ms"`
}

type PatternsConfig struct {
	Up       StepConfig `yaml:"up"`
	Down     StepConfig `yaml:"down"`
	High     StepConfig `yaml:"high"`
	Low      StepConfig `yaml:"low"`
	Center   StepConfig `yaml:"center"`
	Distress StepConfig `yaml:"distress"`
}

// ---- LOOP / WATCHDOG ----

type LoopConfig struct {
	TickMs int `yaml:"tick_ms"`
}

type WatchdogConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Device       string `yaml:"device"`
	KickMs       int    `yaml:"kick_ms"`
	StallMs      int    `yaml:"stall_ms"`
	DisarmOnExit bool   `yaml:"disarm_on_exit"`
}

// ---- OUTER SURFACES ----

type MQTTConfig struct {
	Broker      string        `yaml:"broker"`
	ClientID    string        `yaml:"client_id"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
	QueueLength int           `yaml:"queue_length"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func step(s blink.Step) StepConfig {
	return StepConfig{Color: s.Color.String(), Toggles: s.Toggles, PeriodMs: s.PeriodMs}
}

// NewConfig returns the defaults. Every field a file omits keeps its
// default.
func NewConfig() *Config {
	t := blink.DefaultTable()
	return &Config{
		Mode: string(logic.ModeDiscrete),
		GPIO: GPIOConfig{
			Chip:    gpio.DefaultChip,
			RCPin:   gpio.DefaultPinRC,
			SafePin: gpio.DefaultPinSafe,
			LED: LEDConfig{
				Red:   gpio.DefaultPinRed,
				Green: gpio.DefaultPinGrn,
				Blue:  gpio.DefaultPinBlu,
			},
		},
		Signal: SignalConfig{
			MinUs:     rc.DefaultMinUs,
			MaxUs:     rc.DefaultMaxUs,
			TimeoutMs: logic.DefaultTimeoutMs,
		},
		Discrete: DiscreteConfig{
			DownMaxUs: logic.DefaultDownMaxUs,
			UpMinUs:   logic.DefaultUpMinUs,
		},
		Continuous: ContinuousConfig{
			Window:     logic.DefaultWindow,
			Buckets:    logic.DefaultBuckets,
			DeadbandPc: logic.DefaultDeadbandPc,
		},
		Patterns: PatternsConfig{
			Up:       step(t.Up),
			Down:     step(t.Down),
			High:     step(t.High),
			Low:      step(t.Low),
			Center:   step(t.Center),
			Distress: step(t.Distress),
		},
		Loop: LoopConfig{TickMs: 5},
		Watchdog: WatchdogConfig{
			Enabled:      true,
			Device:       watchdog.DefaultPath,
			KickMs:       100,
			StallMs:      500,
			DisarmOnExit: true,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://192.168.1.200:1883",
			ClientID:    "rc-indicator",
			Heartbeat:   15 * time.Minute,
			QueueLength: 64,
		},
		HTTP: HTTPConfig{Addr: ":80"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// Band returns the admissible pulse band.
func (c *Config) Band() rc.Band {
	return rc.Band{MinUs: c.Signal.MinUs, MaxUs: c.Signal.MaxUs}
}

// Policy returns the signal validity policy.
func (c *Config) Policy() logic.Policy {
	return logic.Policy{Band: c.Band(), TimeoutMs: c.Signal.TimeoutMs}
}

// Interpreter builds the configured strategy.
func (c *Config) Interpreter() logic.Interpreter {
	if logic.Mode(c.Mode) == logic.ModeContinuous {
		return logic.NewCalibrator(c.Continuous.Window, c.Continuous.Buckets, c.Continuous.DeadbandPc)
	}
	return logic.NewClassifier(logic.Thresholds{
		DownMaxUs: c.Discrete.DownMaxUs,
		UpMinUs:   c.Discrete.UpMinUs,
	})
}

// Table returns the pattern table. Call only after Validate.
func (c *Config) Table() blink.Table {
	conv := func(s StepConfig) blink.Step {
		col, _ := ParseColor(s.Color)
		return blink.Step{Color: col, Toggles: s.Toggles, PeriodMs: s.PeriodMs}
	}
	return blink.Table{
		Up:       conv(c.Patterns.Up),
		Down:     conv(c.Patterns.Down),
		High:     conv(c.Patterns.High),
		Low:      conv(c.Patterns.Low),
		Center:   conv(c.Patterns.Center),
		Distress: conv(c.Patterns.Distress),
	}
}

// LEDPins returns the red, green and blue offsets.
func (c *Config) LEDPins() [3]int {
	return [3]int{c.GPIO.LED.Red, c.GPIO.LED.Green, c.GPIO.LED.Blue}
}

// ParseColor parses off, red, green, blue, or a combination of r, g and b.
func ParseColor(s string) (blink.Color, error) {
	switch s {
	case "off":
		return blink.Off, nil
	case "red":
		return blink.Red, nil
	case "green":
		return blink.Green, nil
	case "blue":
		return blink.Blue, nil
	case "":
		return blink.Off, fmt.Errorf("empty color")
	}
	var c blink.Color
	for _, r := range s {
		switch r {
		case 'r':
			c.R = true
		case 'g':
			c.G = true
		case 'b':
			c.B = true
		default:
			return blink.Off, fmt.Errorf("unknown color %q", s)
		}
	}
	return c, nil
}
