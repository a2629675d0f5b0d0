// Package watchdog keeps an external hardware watchdog alive for as long as
// the main loop is making progress.
//
// The Kicker pings on its own wall-clock period, independent of the signal
// pipeline and fail-safe state. It stops pinging when the loop's heartbeat
// goes stale, which lets the hardware reset a stuck process.
package watchdog

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// DefaultPath is the Linux watchdog character device.
const DefaultPath = "/dev/watchdog"

// Device is a watchdog that must be pinged before its timeout.
type Device interface {
	Ping() error
	Close() error
}

// Kicker pings a Device while Beat is being called.
type Kicker struct {
	dev    Device
	period time.Duration
	stall  time.Duration
	now    func() time.Time

	lastBeat atomic.Int64
	stalled  atomic.Bool
}

// NewKicker creates a Kicker. period is the ping interval; stall is how old
// the last Beat may be before pings stop. The kicker starts with a fresh
// beat at now().
func NewKicker(dev Device, period, stall time.Duration, now func() time.Time) *Kicker {
	k := &Kicker{dev: dev, period: period, stall: stall, now: now}
	k.lastBeat.Store(now().UnixNano())
	return k
}

// Beat records loop progress. Safe to call from any goroutine.
func (k *Kicker) Beat() {
	k.lastBeat.Store(k.now().UnixNano())
}

// Kick pings the device if the last beat is fresh. It reports whether a ping
// was sent.
func (k *Kicker) Kick() (bool, error) {
	age := k.now().Sub(time.Unix(0, k.lastBeat.Load()))
	if age > k.stall {
		if !k.stalled.Swap(true) {
			log.Printf("watchdog: main loop stalled for %v, withholding keepalive", age)
		}
		return false, nil
	}
	if k.stalled.Swap(false) {
		log.Printf("watchdog: main loop recovered")
	}
	return true, k.dev.Ping()
}

// Stalled reports whether the last Kick found a stale heartbeat.
func (k *Kicker) Stalled() bool {
	return k.stalled.Load()
}

// Run kicks every period until ctx is done.
func (k *Kicker) Run(ctx context.Context) {
	t := time.NewTicker(k.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := k.Kick(); err != nil {
				log.Printf("watchdog ping error: %v", err)
			}
		}
	}
}
