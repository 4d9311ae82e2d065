//go:build !linux

package device

import "errors"

// ErrUnsupported is returned on platforms without joystick support.
var ErrUnsupported = errors.New("joystick devices are only supported on linux")

// Open opens the device with specified index.
func Open(int) (Device, error) {
	return nil, ErrUnsupported
}

// Detect opens the first available device from startIndex.
func Detect(int) (Device, error) {
	return nil, ErrUnsupported
}
