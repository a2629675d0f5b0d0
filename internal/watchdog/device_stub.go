//go:build !linux

package watchdog

import "errors"

// LinuxDevice is not available on non-Linux platforms.
type LinuxDevice struct{}

// Open returns an error on non-Linux platforms.
func Open(path string) (*LinuxDevice, error) {
	return nil, errors.New("watchdog: not supported on this platform (requires Linux)")
}

// Ping is not implemented on non-Linux platforms.
func (d *LinuxDevice) Ping() error {
	return errors.New("watchdog: not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *LinuxDevice) Close() error {
	return nil
}

// Disarm is not implemented on non-Linux platforms.
func (d *LinuxDevice) Disarm() error {
	return nil
}
