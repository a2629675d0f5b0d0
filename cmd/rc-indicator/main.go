// Command rc-indicator reads one RC receiver PWM channel and shows its
// position on an RGB LED, publishing changes to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

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
	"github.com/sweeney/rc-indicator/internal/watchdog"
	"github.com/sweeney/rc-indicator/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigFile = "/etc/rc-indicator.yaml"

func main() {
	cliApp := &cli.App{
		Name:    "rc-indicator",
		Usage:   "show an RC channel position on an RGB LED",
		Version: version,
		UsageText: "rc-indicator [--config <file>] [--mode discrete|continuous] [--broker <url>|off] [--http <addr>]" +
			"\n\nEXAMPLE:" +
			"\n\tcheck wiring without starting the daemon" +
			"\n\t\trc-indicator --print-state",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (missing default file is ignored)", Value: defaultConfigFile},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "interpretation `MODE` (discrete|continuous)"},
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker `URL` (\"off\" disables)"},
			&cli.StringFlag{Name: "http", Usage: "HTTP status `ADDR` (empty disables)"},
			&cli.BoolFlag{Name: "no-watchdog", Usage: "do not open the hardware watchdog"},
			&cli.BoolFlag{Name: "print-state", Usage: "print fail-safe state, RC line level and one pulse measurement, then exit"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return run(cfg, c.Bool("print-state"))
		},
	}
	sort.Sort(cli.FlagsByName(cliApp.Flags))

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if !c.IsSet("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("mode") {
		cfg.Mode = c.String("mode")
	}
	if c.IsSet("broker") {
		cfg.MQTT.Broker = c.String("broker")
	}
	if c.IsSet("http") {
		cfg.HTTP.Addr = c.String("http")
	}
	if c.Bool("no-watchdog") {
		cfg.Watchdog.Enabled = false
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func run(cfg *config.Config, printState bool) error {
	// Initialize GPIO
	edges := gpio.NewRealEdgeSource(cfg.GPIO.Chip, cfg.GPIO.RCPin)
	defer edges.Close()

	safePin, err := gpio.NewRealInput(cfg.GPIO.Chip, cfg.GPIO.SafePin)
	if err != nil {
		return fmt.Errorf("init fail-safe pin: %w", err)
	}
	defer safePin.Close()

	clk := clock.New()
	meas := &rc.Measurement{}
	capture := rc.NewCapture(cfg.Band(), clk, meas)

	// The jumper is sampled once, before anything else touches the RC line.
	gate := &failsafe.Gate{}
	mode, err := gate.Evaluate(safePin)
	if err != nil {
		log.Printf("fail-safe: %v", err)
	}
	log.Printf("fail-safe: %s", mode)

	if _, err := gate.Arm(func() error { return edges.Watch(capture.Edge) }); err != nil {
		return fmt.Errorf("watch rc pin: %w", err)
	}

	if printState {
		return printCurrentState(os.Stdout, gate, edges, meas, clk, 100*time.Millisecond)
	}

	led, err := gpio.NewRealRGB(cfg.GPIO.Chip, cfg.LEDPins(), cfg.GPIO.LED.ActiveLow)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	var kicker *watchdog.Kicker
	if cfg.Watchdog.Enabled {
		dev, err := watchdog.Open(cfg.Watchdog.Device)
		if err != nil {
			return fmt.Errorf("open watchdog (disable with --no-watchdog): %w", err)
		}
		defer func() {
			if cfg.Watchdog.DisarmOnExit {
				if err := dev.Disarm(); err != nil {
					log.Printf("watchdog disarm: %v", err)
				}
				return
			}
			dev.Close()
		}()
		kicker = watchdog.NewKicker(dev,
			time.Duration(cfg.Watchdog.KickMs)*time.Millisecond,
			time.Duration(cfg.Watchdog.StallMs)*time.Millisecond,
			time.Now)
	}

	// Initialize MQTT
	var upstream mqtt.Publisher = discardPublisher{}
	if cfg.MQTT.Broker != "" {
		upstream = mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	}
	queue := mqtt.NewQueue(upstream, cfg.MQTT.QueueLength)
	defer queue.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		Mode:        cfg.Mode,
		MinUs:       cfg.Signal.MinUs,
		MaxUs:       cfg.Signal.MaxUs,
		TimeoutMs:   cfg.Signal.TimeoutMs,
		TickMs:      int64(cfg.Loop.TickMs),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Watchdog:    kicker != nil,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	})
	tracker.WatchQueue(queue)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	eval := logic.NewEvaluator(cfg.Policy(), cfg.Interpreter(), start)
	pipeline := indicator.New(clk, meas, eval, blink.NewScheduler(led), cfg.Table(), &logic.ValueCell{})
	tracker.ReadFrom(pipeline.Value())

	if gate.Safe() {
		if err := pipeline.EnterSafe(); err != nil {
			log.Printf("distress pattern: %v", err)
		}
		tracker.SetSafe(true)
	}

	publishSystem(queue, tracker, mqtt.EventStartup, "", true)
	if gate.Safe() {
		publishSystem(queue, tracker, mqtt.EventFailsafe, "JUMPER", true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(ctx)
	}()
	if kicker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kicker.Run(ctx)
		}()
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(tracker, version)
		go func() {
			if err := srv.Listen(cfg.HTTP.Addr); err != nil {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: mode=%s band=%d-%dus timeout=%dms tick=%dms broker=%q watchdog=%v",
		cfg.Mode, cfg.Signal.MinUs, cfg.Signal.MaxUs, cfg.Signal.TimeoutMs, cfg.Loop.TickMs, cfg.MQTT.Broker, kicker != nil)

	ticker := time.NewTicker(time.Duration(cfg.Loop.TickMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = runLoop(loopDeps{
		pipeline:   pipeline,
		publisher:  queue,
		mqttStatus: queue,
		tracker:    tracker,
		kicker:     kicker,
		heartbeat:  cfg.MQTT.Heartbeat,
	}, time.Now, ticker.C, sigCh)

	// Stop the kicker before the device is disarmed and let the queue
	// deliver SHUTDOWN.
	cancel()
	wg.Wait()
	return err
}

// loopDeps is everything runLoop drives. kicker and tracker may be nil.
type loopDeps struct {
	pipeline   *indicator.Pipeline
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	kicker     *watchdog.Kicker
	heartbeat  time.Duration
}

func runLoop(d loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	eval := d.pipeline.Evaluator()
	ledFailing := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			refreshConnection(d)
			publishSystem(d.publisher, d.tracker, mqtt.EventShutdown, signalName, true)
			return nil

		case <-tick:
			t := now()
			if d.kicker != nil {
				d.kicker.Beat()
			}

			_, ev, err := d.pipeline.Step(t)
			if err != nil {
				if !ledFailing {
					log.Printf("led write error: %v", err)
					ledFailing = true
				}
			} else if ledFailing {
				log.Printf("led write recovered")
				ledFailing = false
			}

			if ev != nil {
				if ev.To.Mode == logic.ModeContinuous && ev.To.Signal {
					log.Printf("event: %s (%s -> %s, %d%%)", ev.Type, ev.From.State, ev.To.State, ev.To.Percent)
				} else {
					log.Printf("event: %s (%s -> %s)", ev.Type, ev.From.State, ev.To.State)
				}
				if err := d.publisher.Publish(*ev); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if d.tracker != nil {
				d.tracker.Update(indicatorStatus(d.pipeline), eval.EventCountsSnapshot())
				if d.kicker != nil {
					d.tracker.SetWatchdogStalled(d.kicker.Stalled())
				}
			}

			if hbData := eval.CheckHeartbeat(t, d.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v up=%d down=%d idle=%d lost=%d",
					hbData.Uptime, hbData.Counts.Up, hbData.Counts.Down, hbData.Counts.Idle, hbData.Counts.Lost)
				refreshConnection(d)
				if d.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
				}
				publishSystem(d.publisher, d.tracker, mqtt.EventHeartbeat, "", false)
			}
		}
	}
}

func refreshConnection(d loopDeps) {
	if d.tracker != nil && d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// publishSystem sends a lifecycle event carrying a full status snapshot when
// a tracker is available.
func publishSystem(pub mqtt.Publisher, tracker *status.Tracker, event, reason string, retained bool) {
	ev := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if tracker != nil {
		snap := tracker.Snapshot()
		ev.Timestamp = snap.Now
		ev.RawPayload = status.FormatStatusEvent(snap, event, reason)
	}
	if err := pub.PublishSystem(ev); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
}

// indicatorStatus collects the pipeline's last tick for the tracker.
func indicatorStatus(p *indicator.Pipeline) status.Indicator {
	ind := status.Indicator{
		Pattern: p.Pattern().String(),
		Lit:     p.Lit(),
	}
	if age, ok := p.SampleAgeMs(); ok {
		ind.HasSample = true
		ind.WidthUs = p.Sample().WidthUs
		ind.SampleAgeMs = age
	}
	if cal, ok := p.Evaluator().Calibration(); ok {
		ind.Calibration = &status.Calibration{
			MinUs:       cal.MinUs,
			MaxUs:       cal.MaxUs,
			Established: cal.Established(),
		}
	}
	return ind
}

// discardPublisher is used when MQTT is disabled.
type discardPublisher struct{}

func (discardPublisher) Publish(logic.Event) error            { return nil }
func (discardPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (discardPublisher) Close() error                         { return nil }

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
