package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sweeney/rc-indicator/internal/blink"
	"github.com/sweeney/rc-indicator/internal/clock"
	"github.com/sweeney/rc-indicator/internal/config"
	"github.com/sweeney/rc-indicator/internal/failsafe"
	"github.com/sweeney/rc-indicator/internal/gpio"
	"github.com/sweeney/rc-indicator/internal/indicator"
	"github.com/sweeney/rc-indicator/internal/logic"
	"github.com/sweeney/rc-indicator/internal/mqtt"
	"github.com/sweeney/rc-indicator/internal/rc"
	"github.com/sweeney/rc-indicator/internal/status"
	"github.com/sweeney/rc-indicator/internal/web"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// system wires every package the way the daemon does, on fakes.
type system struct {
	cfg       *config.Config
	clk       *clock.Fake
	edges     *gpio.FakeEdgeSource
	safePin   *gpio.FakeInput
	led       *gpio.FakeRGB
	gate      *failsafe.Gate
	value     *logic.ValueCell
	pipeline  *indicator.Pipeline
	publisher *mqtt.FakePublisher
	queue     *mqtt.Queue
	tracker   *status.Tracker
}

func newSystem(t *testing.T, cfg *config.Config, safePin *gpio.FakeInput) *system {
	t.Helper()
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("config: %v", err)
	}
	config.Normalize(cfg)

	s := &system{
		cfg:       cfg,
		clk:       clock.NewFake(0),
		edges:     gpio.NewFakeEdgeSource(),
		safePin:   safePin,
		led:       gpio.NewFakeRGB(),
		gate:      &failsafe.Gate{},
		value:     &logic.ValueCell{},
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(startTime, status.Config{Mode: cfg.Mode}),
	}
	s.queue = mqtt.NewQueue(s.publisher, cfg.MQTT.QueueLength)
	s.tracker.WatchQueue(s.queue)

	meas := &rc.Measurement{}
	capture := rc.NewCapture(cfg.Band(), s.clk, meas)
	s.gate.Evaluate(safePin)
	if _, err := s.gate.Arm(func() error { return s.edges.Watch(capture.Edge) }); err != nil {
		t.Fatalf("arm: %v", err)
	}

	eval := logic.NewEvaluator(cfg.Policy(), cfg.Interpreter(), startTime)
	s.pipeline = indicator.New(s.clk, meas, eval, blink.NewScheduler(s.led), cfg.Table(), s.value)
	s.tracker.ReadFrom(s.value)
	if s.gate.Safe() {
		if err := s.pipeline.EnterSafe(); err != nil {
			t.Fatalf("enter safe: %v", err)
		}
		s.tracker.SetSafe(true)
	}
	return s
}

// hold sends a pulse of width every 20ms and steps the pipeline every
// 5ms for d. A width of 0 sends nothing.
func (s *system) hold(t *testing.T, width uint32, d time.Duration) {
	t.Helper()
	for i := time.Duration(0); i < d; i += 5 * time.Millisecond {
		s.clk.Advance(5 * time.Millisecond)
		if width != 0 && i%(20*time.Millisecond) == 0 {
			s.edges.Pulse(s.clk.Micros(), width)
		}
		now := startTime.Add(time.Duration(s.clk.Millis()) * time.Millisecond)
		_, ev, err := s.pipeline.Step(now)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if ev != nil {
			s.queue.Publish(*ev)
		}
		eval := s.pipeline.Evaluator()
		s.tracker.Update(status.Indicator{
			Pattern: s.pipeline.Pattern().String(),
			Lit:     s.pipeline.Lit(),
		}, eval.EventCountsSnapshot())
	}
}

func (s *system) eventTypes() []logic.EventType {
	s.queue.Flush()
	var out []logic.EventType
	for _, ev := range s.publisher.EventsSnapshot() {
		out = append(out, ev.Type)
	}
	return out
}

func equalTypes(a, b []logic.EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestIntegrationDiscreteFlow drives the discrete strategy from edges to
// MQTT payloads and the LED.
func TestIntegrationDiscreteFlow(t *testing.T) {
	s := newSystem(t, config.NewConfig(), &gpio.FakeInput{High: true})
	if !s.edges.Watched() {
		t.Fatal("NORMAL mode should arm edge capture")
	}

	s.hold(t, 1500, 200*time.Millisecond) // centred stick
	s.hold(t, 1950, 500*time.Millisecond) // up
	s.hold(t, 1500, 200*time.Millisecond)
	s.hold(t, 1050, 500*time.Millisecond) // down
	s.hold(t, 0, 400*time.Millisecond)    // receiver off

	want := []logic.EventType{logic.EventIdle, logic.EventUp, logic.EventIdle, logic.EventDown, logic.EventSignalLost}
	if got := s.eventTypes(); !equalTypes(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}

	var parsed mqtt.Payload
	if err := json.Unmarshal(s.publisher.Payloads[1], &parsed); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if parsed.Indicator.Event != "UP" || parsed.Indicator.From.State != "IDLE" || parsed.Indicator.To.State != "UP" {
		t.Errorf("UP payload: got %+v", parsed.Indicator)
	}

	writes := s.led.Writes()
	var green, red int
	for _, c := range writes {
		switch c {
		case blink.Green:
			green++
		case blink.Red:
			red++
		}
	}
	if green != 1 || red != 1 {
		t.Errorf("flashes: green=%d red=%d, want 1 each", green, red)
	}
	if s.led.Last() != blink.Off {
		t.Error("LED should be dark with no signal")
	}
	if r := s.value.Load(); r.Signal {
		t.Errorf("published value should be the no-signal sentinel, got %+v", r)
	}
}

// TestIntegrationOutOfBandPulsesAreIgnored keeps glitches away from the
// evaluator: only in-band pulses refresh the measurement.
func TestIntegrationOutOfBandPulsesAreIgnored(t *testing.T) {
	s := newSystem(t, config.NewConfig(), &gpio.FakeInput{High: true})

	s.hold(t, 1950, 100*time.Millisecond)
	s.hold(t, 2500, 250*time.Millisecond) // above band, measurement ages
	s.hold(t, 300, 100*time.Millisecond)  // below band

	want := []logic.EventType{logic.EventUp, logic.EventSignalLost}
	if got := s.eventTypes(); !equalTypes(got, want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
}

// TestIntegrationFailsafeJumper latches SAFE: the RC line is never armed and
// the distress pattern runs once.
func TestIntegrationFailsafeJumper(t *testing.T) {
	pin := &gpio.FakeInput{High: false}
	s := newSystem(t, config.NewConfig(), pin)

	if s.gate.Mode() != failsafe.ModeSafe {
		t.Fatalf("mode: got %s, want SAFE", s.gate.Mode())
	}
	if s.edges.Watched() {
		t.Fatal("SAFE mode must not arm edge capture")
	}

	s.hold(t, 1950, 3*time.Second)

	if got := s.eventTypes(); len(got) != 0 {
		t.Errorf("expected no events in SAFE mode, got %v", got)
	}
	var red int
	for _, c := range s.led.Writes() {
		if c == blink.Red {
			red++
		}
	}
	if red != 3 {
		t.Errorf("distress flashes: got %d, want 3", red)
	}
	if s.led.Last() != blink.Off {
		t.Error("distress should end dark")
	}

	// The pin is read once even if evaluated again.
	s.gate.Evaluate(pin)
	if pin.Reads != 1 {
		t.Errorf("fail-safe pin reads: got %d, want 1", pin.Reads)
	}
}

func TestIntegrationFailsafeReadErrorLatchesSafe(t *testing.T) {
	s := newSystem(t, config.NewConfig(), &gpio.FakeInput{High: true, ReadError: errors.New("line busy")})
	if !s.gate.Safe() || s.edges.Watched() {
		t.Error("unreadable jumper should latch SAFE without arming capture")
	}
}

// TestIntegrationContinuousSweep calibrates by sweeping the stick, then
// checks the zones map onto the high, low and centre patterns.
func TestIntegrationContinuousSweep(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Mode = "continuous"
	cfg.Continuous.Window = 1
	s := newSystem(t, cfg, &gpio.FakeInput{High: true})

	s.hold(t, 1000, 40*time.Millisecond)
	s.hold(t, 2000, 40*time.Millisecond)
	cal, ok := s.pipeline.Evaluator().Calibration()
	if !ok || cal.MinUs != 1000 || cal.MaxUs != 2000 {
		t.Fatalf("calibration: got %+v ok=%v", cal, ok)
	}
	if r := s.value.Load(); r.State != logic.StateUp || r.Percent != 100 {
		t.Errorf("full deflection: got %+v", r)
	}
	if s.pipeline.Pattern() != blink.PatternHigh {
		t.Errorf("pattern: got %s, want HIGH", s.pipeline.Pattern())
	}

	s.hold(t, 1520, 40*time.Millisecond)
	if r := s.value.Load(); r.State != logic.StateIdle || r.Percent != 4 {
		t.Errorf("near centre: got %+v", r)
	}
	if s.pipeline.Pattern() != blink.PatternCenter {
		t.Errorf("pattern: got %s, want CENTER", s.pipeline.Pattern())
	}

	s.hold(t, 1200, 40*time.Millisecond)
	if r := s.value.Load(); r.State != logic.StateDown || r.Percent != -60 {
		t.Errorf("low: got %+v", r)
	}
	if s.pipeline.Pattern() != blink.PatternLow {
		t.Errorf("pattern: got %s, want LOW", s.pipeline.Pattern())
	}
}

// TestIntegrationStatusServer reads the tracker through the HTTP server.
func TestIntegrationStatusServer(t *testing.T) {
	s := newSystem(t, config.NewConfig(), &gpio.FakeInput{High: true})
	srv := web.New(s.tracker, "test")

	s.hold(t, 1950, 100*time.Millisecond)

	resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/index.json", nil))
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sj.Status.Indicator.State != "UP" || sj.Status.Indicator.Pattern != "UP" {
		t.Errorf("indicator: got %+v", sj.Status.Indicator)
	}
	if sj.Status.Counts.Up != 1 || sj.Status.Failsafe != "NORMAL" {
		t.Errorf("status: got %+v", sj.Status)
	}

	// The reading is published by the loop; the server sees the next tick
	// without waiting for another Update.
	s.value.Store(logic.NoSignal(logic.ModeDiscrete))
	snap := s.tracker.Snapshot()
	if snap.Indicator.Reading.Signal || snap.Indicator.Reading.State != logic.StateIdle {
		t.Errorf("reading should come from the value cell, got %+v", snap.Indicator.Reading)
	}
}

// TestIntegrationQueueSurvivesBrokerOutage keeps the loop running while the
// publisher fails.
func TestIntegrationQueueSurvivesBrokerOutage(t *testing.T) {
	s := newSystem(t, config.NewConfig(), &gpio.FakeInput{High: true})
	s.publisher.PublishError = errors.New("broker unavailable")

	s.hold(t, 1950, 100*time.Millisecond)
	s.hold(t, 1050, 100*time.Millisecond)
	if got := s.eventTypes(); len(got) != 0 {
		t.Errorf("failed publishes should not be recorded, got %v", got)
	}
	if s.pipeline.Evaluator().EventCountsSnapshot().Down != 1 {
		t.Error("evaluation should continue while MQTT is down")
	}
}

func TestIntegrationStatusReportsQueueDrops(t *testing.T) {
	cfg := config.NewConfig()
	cfg.MQTT.QueueLength = 2
	s := newSystem(t, cfg, &gpio.FakeInput{High: true})
	srv := web.New(s.tracker, "test")

	for i := 0; i < 5; i++ {
		s.queue.Publish(logic.Event{Timestamp: startTime, Type: logic.EventUp})
	}

	resp, err := srv.Test(httptest.NewRequest(http.MethodGet, "/index.json", nil))
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sj.Status.MQTT.Queued != 2 || sj.Status.MQTT.Dropped != 3 {
		t.Errorf("mqtt queue: got %+v, want 2 queued and 3 dropped", sj.Status.MQTT)
	}

	s.queue.Flush()
	if snap := s.tracker.Snapshot(); snap.MQTTQueued != 0 || snap.MQTTDropped != 3 {
		t.Errorf("after flush: queued=%d dropped=%d", snap.MQTTQueued, snap.MQTTDropped)
	}
}
