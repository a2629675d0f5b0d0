package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/rc-indicator/internal/logic"
	"github.com/sweeney/rc-indicator/internal/status"
)

func newTestServer(t *testing.T) (*Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Mode:        "discrete",
		MinUs:       800,
		MaxUs:       2200,
		TimeoutMs:   300,
		TickMs:      5,
		HeartbeatMs: 900000,
		Watchdog:    true,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	return New(tr, "1.0.0-test"), tr
}

func get(t *testing.T, s *Server, path string) *http.Response {
	t.Helper()
	resp, err := s.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeStatus(t *testing.T, resp *http.Response) status.StatusJSON {
	t.Helper()
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	s, tr := newTestServer(t)
	tr.Update(status.Indicator{
		Reading:     logic.Reading{Mode: logic.ModeDiscrete, State: logic.StateUp, Signal: true},
		WidthUs:     1900,
		HasSample:   true,
		SampleAgeMs: 7,
		Pattern:     "UP",
		Lit:         true,
	}, logic.EventCounts{Up: 5, Down: 2})
	tr.SetMQTTConnected(true)

	resp := get(t, s, "/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	sj := decodeStatus(t, resp)
	if sj.Status.Indicator.State != "UP" || !sj.Status.Indicator.Signal {
		t.Errorf("indicator: got %+v", sj.Status.Indicator)
	}
	if sj.Status.Indicator.WidthUs == nil || *sj.Status.Indicator.WidthUs != 1900 {
		t.Errorf("width: got %v", sj.Status.Indicator.WidthUs)
	}
	if !sj.Status.MQTT.Connected || sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("mqtt: got %+v", sj.Status.MQTT)
	}
	if sj.Status.Counts.Up != 5 || sj.Status.Counts.Down != 2 {
		t.Errorf("counts: got %+v", sj.Status.Counts)
	}
	if sj.Status.Config.TimeoutMs != 300 {
		t.Errorf("Config.TimeoutMs: got %d, want 300", sj.Status.Config.TimeoutMs)
	}
}

func TestJSONBeforeFirstPulse(t *testing.T) {
	s, _ := newTestServer(t)

	sj := decodeStatus(t, get(t, s, "/index.json"))
	if sj.Status.Indicator.Signal {
		t.Error("expected no signal before the first pulse")
	}
	if sj.Status.Indicator.State != "IDLE" {
		t.Errorf("state: got %q, want IDLE", sj.Status.Indicator.State)
	}
	if sj.Status.Indicator.WidthUs != nil {
		t.Error("width should be omitted before the first pulse")
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	s, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"})

	sj := decodeStatus(t, get(t, s, "/index.json"))
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpoints(t *testing.T) {
	s, tr := newTestServer(t)
	tr.Update(status.Indicator{
		Reading: logic.Reading{Mode: logic.ModeDiscrete, State: logic.StateDown, Signal: true},
		Pattern: "DOWN",
	}, logic.EventCounts{Down: 1})

	for _, path := range []string{"/", "/index.html"} {
		t.Run(path, func(t *testing.T) {
			resp := get(t, s, path)
			if resp.StatusCode != 200 {
				t.Errorf("status: got %d, want 200", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type: got %q, want text/html", ct)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), `class="down">DOWN`) {
				t.Errorf("expected DOWN state in page:\n%s", body)
			}
		})
	}
}

func TestHTMLShowsSafeMode(t *testing.T) {
	s, tr := newTestServer(t)
	tr.SetSafe(true)
	tr.Update(status.Indicator{Reading: logic.NoSignal(logic.ModeDiscrete), Pattern: "DISTRESS"}, logic.EventCounts{})

	body, _ := io.ReadAll(get(t, s, "/").Body)
	page := string(body)
	if !strings.Contains(page, `class="safe">SAFE`) {
		t.Error("expected SAFE in page")
	}
	if !strings.Contains(page, "NO SIGNAL") || !strings.Contains(page, "DISTRESS") {
		t.Error("expected NO SIGNAL and DISTRESS in page")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, tr := newTestServer(t)

	resp := get(t, s, "/health")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	var health struct {
		Failsafe        string
		WatchdogStalled bool
		Version         string
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Version != "1.0.0-test" || health.Failsafe != "NORMAL" {
		t.Errorf("health: got %+v", health)
	}

	tr.SetWatchdogStalled(true)
	if resp := get(t, s, "/health"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("stalled status: got %d, want 503", resp.StatusCode)
	}
}

func TestVersionEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	var v map[string]string
	if err := json.NewDecoder(get(t, s, "/version").Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v["version"] != "1.0.0-test" {
		t.Errorf("version: got %q", v["version"])
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	s, _ := newTestServer(t)
	if resp := get(t, s, "/nonexistent"); resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	s, tr := newTestServer(t)

	sj1 := decodeStatus(t, get(t, s, "/index.json"))
	if sj1.Status.Indicator.Signal {
		t.Error("expected no signal initially")
	}

	tr.Update(status.Indicator{
		Reading: logic.Reading{Mode: logic.ModeDiscrete, State: logic.StateUp, Signal: true},
	}, logic.EventCounts{Up: 1})
	tr.SetMQTTConnected(true)

	sj2 := decodeStatus(t, get(t, s, "/index.json"))
	if !sj2.Status.Indicator.Signal || sj2.Status.Indicator.State != "UP" {
		t.Errorf("indicator after update: got %+v", sj2.Status.Indicator)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
