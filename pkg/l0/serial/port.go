// Package serial provides the UART transport to the expansion board.
package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Defaults of the expansion board UART.
const (
	DefaultDevice      = "/dev/ttyTHS1"
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 40 * time.Millisecond
)

// ErrNotOpen indicates the port is not opened.
var ErrNotOpen = errors.New("port not open")

var openPort = serial.Open

type timeoutError struct {
	device string
}

func (e *timeoutError) Error() string   { return e.device + ": read timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// Port is a serial port implementing comm.Transport.
// It can be reopened after Close.
type Port struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration

	lock sync.Mutex
	port serial.Port
}

// NewPort creates a Port with default settings.
func NewPort(device string) *Port {
	return &Port{
		Device:      device,
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Open opens the device in 8N1 mode.
func (p *Port) Open() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.port != nil {
		return nil
	}
	port, err := openPort(p.Device, &serial.Mode{
		BaudRate: p.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", p.Device, err)
	}
	if err = port.SetReadTimeout(p.readTimeout()); err != nil {
		port.Close()
		return fmt.Errorf("set read timeout %s: %w", p.Device, err)
	}
	if err = port.ResetInputBuffer(); err != nil {
		glog.V(2).Infof("reset input buffer %s: %v", p.Device, err)
	}
	p.port = port
	glog.V(1).Infof("%s opened at %d baud", p.Device, p.BaudRate)
	return nil
}

// Close closes the device.
func (p *Port) Close() error {
	p.lock.Lock()
	port := p.port
	p.port = nil
	p.lock.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}

// Read reads available bytes. Returning nothing after the read timeout
// is reported as a timeout error. Returning nothing well before the
// timeout means the device hung up.
func (p *Port) Read(b []byte) (int, error) {
	port := p.current()
	if port == nil {
		return 0, ErrNotOpen
	}
	start := time.Now()
	n, err := port.Read(b)
	if err != nil || n > 0 {
		return n, err
	}
	if time.Since(start) < p.readTimeout()/2 {
		return 0, io.EOF
	}
	return 0, &timeoutError{device: p.Device}
}

// Write writes to the device.
func (p *Port) Write(b []byte) (int, error) {
	port := p.current()
	if port == nil {
		return 0, ErrNotOpen
	}
	return port.Write(b)
}

func (p *Port) current() serial.Port {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.port
}

func (p *Port) readTimeout() time.Duration {
	if p.ReadTimeout > 0 {
		return p.ReadTimeout
	}
	return DefaultReadTimeout
}

// ListPorts lists serial devices present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
