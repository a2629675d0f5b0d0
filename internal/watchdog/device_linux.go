//go:build linux

package watchdog

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// LinuxDevice is an open /dev/watchdog. The timeout is whatever the platform
// configured; this package only keeps it alive.
type LinuxDevice struct {
	f *os.File
}

// Open opens the watchdog device at path. Opening arms the watchdog.
func Open(path string) (*LinuxDevice, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog %s: %w", path, err)
	}
	return &LinuxDevice{f: f}, nil
}

// Ping resets the watchdog timer.
func (d *LinuxDevice) Ping() error {
	if err := unix.IoctlWatchdogKeepalive(int(d.f.Fd())); err != nil {
		return fmt.Errorf("watchdog keepalive: %w", err)
	}
	return nil
}

// Close releases the device without disarming it. The hardware resets the
// board unless someone else keeps pinging.
func (d *LinuxDevice) Close() error {
	return d.f.Close()
}

// Disarm writes the magic close character and releases the device. Drivers
// built with nowayout ignore it.
func (d *LinuxDevice) Disarm() error {
	if _, err := d.f.Write([]byte("V")); err != nil {
		d.f.Close()
		return fmt.Errorf("watchdog magic close: %w", err)
	}
	return d.f.Close()
}
