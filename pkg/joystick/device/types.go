// Package device reads Linux joystick devices (/dev/input/jsN).
package device

import "io"

// Event is a change on an axis or a button.
type Event struct {
	// Axis is true for axis events, false for buttons.
	Axis bool
	// Init marks the synthetic events reporting the initial state.
	Init  bool
	Index int
	// Value is the axis position in [-32767, 32767], or 1/0 for buttons.
	Value int
}

// Pressed reports whether a button event is a press.
func (e Event) Pressed() bool {
	return !e.Axis && e.Value != 0
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index is the N in /dev/input/jsN.
	Index() int
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until an event arrives.
	ReadEvent() (Event, error)
}
