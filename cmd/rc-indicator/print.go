package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sweeney/rc-indicator/internal/clock"
	"github.com/sweeney/rc-indicator/internal/failsafe"
	"github.com/sweeney/rc-indicator/internal/rc"
)

type leveler interface {
	Level() (bool, error)
}

// printCurrentState reports the latched fail-safe mode and, in NORMAL mode,
// the RC line level and the most recent pulse captured within wait. The RC
// line is left alone in SAFE mode.
func printCurrentState(w io.Writer, gate *failsafe.Gate, line leveler, meas *rc.Measurement, clk clock.Clock, wait time.Duration) error {
	if gate.Safe() {
		_, err := fmt.Fprintf(w, "FAILSAFE: %s, RC: not sampled\n", gate.Mode())
		return err
	}

	high, err := line.Level()
	if err != nil {
		return fmt.Errorf("read rc line: %w", err)
	}
	level := "LOW"
	if high {
		level = "HIGH"
	}

	time.Sleep(wait)
	s := meas.Snapshot()
	if !s.Received() {
		_, err := fmt.Fprintf(w, "FAILSAFE: %s, LINE: %s, RC: no pulse\n", gate.Mode(), level)
		return err
	}
	age := clk.Millis() - s.CapturedAtMillis
	_, err = fmt.Fprintf(w, "FAILSAFE: %s, LINE: %s, RC: %dus (%dms ago)\n", gate.Mode(), level, s.WidthUs, age)
	return err
}
