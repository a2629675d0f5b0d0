// Package failsafe latches the boot-time safe-mode decision.
package failsafe

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Mode is the gate state.
type Mode string

const (
	ModeNormal Mode = "NORMAL"
	ModeSafe   Mode = "SAFE"
)

// Input reads the fail-safe pin. The pin is pulled up; true means high.
type Input interface {
	Read() (bool, error)
}

// Gate samples the fail-safe pin exactly once. A low pin, or a pin that
// cannot be read, latches SAFE for the rest of the run.
type Gate struct {
	once sync.Once
	safe atomic.Bool
	err  error
}

// Evaluate samples in on the first call and returns the latched mode on
// every call. The returned error is the read error, if any; the mode is
// still valid (SAFE) in that case.
func (g *Gate) Evaluate(in Input) (Mode, error) {
	g.once.Do(func() {
		high, err := in.Read()
		if err != nil {
			g.err = fmt.Errorf("read fail-safe pin: %w", err)
			g.safe.Store(true)
			return
		}
		g.safe.Store(!high)
	})
	return g.Mode(), g.err
}

// Mode returns the latched mode. Before Evaluate it is NORMAL.
func (g *Gate) Mode() Mode {
	if g.safe.Load() {
		return ModeSafe
	}
	return ModeNormal
}

// Safe reports whether SAFE is latched.
func (g *Gate) Safe() bool {
	return g.safe.Load()
}

// Arm calls arm only when the gate is NORMAL. It reports whether arm was
// called.
func (g *Gate) Arm(arm func() error) (bool, error) {
	if g.Safe() {
		return false, nil
	}
	return true, arm()
}
