// Package sim simulates the Transbot expansion board behind the serial
// link, so the engine and controllers run without hardware.
package sim

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/transbot.go/pkg/l0/comm"
)

// Board defaults.
const (
	DefaultReadTimeout    = 40 * time.Millisecond
	DefaultReportInterval = 100 * time.Millisecond
)

// ErrUnplugged is returned by Open while the board is unplugged.
var ErrUnplugged = errors.New("board unplugged")

// Firmware version reported by the simulated board.
const (
	FirmwareMajor = 1
	FirmwareMinor = 0
)

// State is the observable state of the simulated robot.
type State struct {
	Pose Pose
	// Linear velocity in cm/s.
	Linear int
	// Angular velocity in 0.01 rad/s.
	Angular int

	Light      int
	BeepUntil  time.Time
	LEDs       [17][3]uint8
	Effect     [3]uint8
	Camera     [2]int
	Arm        [3]int
	Torque     bool
	GyroAssist bool
	AutoReport bool
	PID        [3]uint16
	MinVel     [2]uint8
	// Battery is the voltage x10.
	Battery uint8
}

var initState = State{
	Camera:  [2]int{90, 90},
	Arm:     [3]int{2048, 2048, 2048},
	Torque:  true,
	PID:     [3]uint16{800, 60, 10000},
	Battery: 124,
}

// Board implements comm.Transport over a simulated robot.
type Board struct {
	ReadTimeout    time.Duration
	ReportInterval time.Duration

	lock       sync.Mutex
	open       bool
	unplugged  bool
	state      State
	rx         []byte
	rxReady    chan struct{}
	lastStep   time.Time
	lastReport time.Time
	rejected   int
	now        func() time.Time
}

// NewBoard creates a Board.
func NewBoard() *Board {
	return &Board{
		ReadTimeout:    DefaultReadTimeout,
		ReportInterval: DefaultReportInterval,
		state:          initState,
		rxReady:        make(chan struct{}, 1),
		now:            time.Now,
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "sim: read timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// Open implements comm.Transport.
func (b *Board) Open() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.unplugged {
		return ErrUnplugged
	}
	b.open = true
	b.lastStep = b.now()
	b.rx = nil
	return nil
}

// Close implements io.Closer.
func (b *Board) Close() error {
	b.lock.Lock()
	b.open = false
	b.lock.Unlock()
	b.notify()
	return nil
}

// Unplug simulates link loss. Pending reads return no data and Open
// fails until Plug.
func (b *Board) Unplug() {
	b.lock.Lock()
	b.unplugged = true
	b.lock.Unlock()
	b.notify()
}

// Plug reverts Unplug.
func (b *Board) Plug() {
	b.lock.Lock()
	b.unplugged = false
	b.lock.Unlock()
}

// State returns a snapshot of the robot.
func (b *Board) State() State {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.step(b.now())
	return b.state
}

// Rejected is the number of malformed frames received.
func (b *Board) Rejected() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.rejected
}

func (b *Board) notify() {
	select {
	case b.rxReady <- struct{}{}:
	default:
	}
}

// Read implements io.Reader.
func (b *Board) Read(p []byte) (int, error) {
	deadline := time.NewTimer(b.ReadTimeout)
	defer deadline.Stop()
	for {
		b.lock.Lock()
		if !b.open {
			b.lock.Unlock()
			return 0, io.ErrClosedPipe
		}
		if b.unplugged {
			b.lock.Unlock()
			return 0, nil
		}
		now := b.now()
		b.step(now)
		if b.state.AutoReport && b.ReportInterval > 0 && now.Sub(b.lastReport) >= b.ReportInterval {
			b.lastReport = now
			b.emitMotion()
		}
		if len(b.rx) > 0 {
			n := copy(p, b.rx)
			b.rx = b.rx[n:]
			b.lock.Unlock()
			return n, nil
		}
		b.lock.Unlock()

		wait := b.ReportInterval
		if wait <= 0 || wait > b.ReadTimeout {
			wait = b.ReadTimeout
		}
		select {
		case <-b.rxReady:
		case <-deadline.C:
			return 0, timeoutError{}
		case <-time.After(wait):
		}
	}
}

// Write implements io.Writer. It accepts one or more complete frames.
func (b *Board) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.notify()
	defer b.lock.Unlock()
	if !b.open || b.unplugged {
		return 0, io.ErrClosedPipe
	}
	b.step(b.now())
	for rest := p; len(rest) > 0; {
		if len(rest) < comm.Overhead || rest[0] != comm.HeaderMark || rest[1] != comm.OutboundMarker {
			b.reject(rest, "bad header")
			break
		}
		size := int(rest[2]) + 2
		if size < comm.Overhead || size > len(rest) {
			b.reject(rest, "bad length")
			break
		}
		frame := rest[:size]
		rest = rest[size:]
		if comm.Checksum(frame) != frame[size-1] {
			b.reject(frame, "bad checksum")
			continue
		}
		code := comm.CommandCode(frame[3])
		d, err := comm.LookupCommand(code)
		if err != nil || d.Length != size {
			b.reject(frame, "unknown command")
			continue
		}
		b.apply(code, frame[comm.HeaderLen:size-1])
	}
	return len(p), nil
}

func (b *Board) reject(data []byte, reason string) {
	b.rejected++
	glog.V(2).Infof("sim: %s: % x", reason, data)
}

// step integrates the pose with the current velocity.
func (b *Board) step(now time.Time) {
	dt := now.Sub(b.lastStep).Seconds()
	b.lastStep = now
	if dt <= 0 {
		return
	}
	s := &b.state
	s.Pose.Advance(float64(s.Linear)*dt, float64(s.Angular)/100*dt)
}

func (b *Board) apply(code comm.CommandCode, p []byte) {
	s := &b.state
	switch code {
	case comm.CmdSetChassisMotion:
		s.Linear, s.Angular = int(int8(p[0])), int(int16(binary.LittleEndian.Uint16(p[1:])))
	case comm.CmdSetMotorForward:
		s.Linear, s.Angular = int(int8(p[0])), 0
	case comm.CmdSetPWMMotor:
		m1, m2 := int(int8(p[0])), int(int8(p[1]))
		s.Linear = (m1 + m2) * 45 / 200
		s.Angular = m2 - m1
	case comm.CmdSetPWMServo:
		if ch := int(p[0]); ch >= 1 && ch <= 2 {
			s.Camera[ch-1] = int(p[1])
		}
	case comm.CmdSetLEDStrip:
		color := [3]uint8{p[1], p[2], p[3]}
		if p[0] == 0xff {
			for n := range s.LEDs {
				s.LEDs[n] = color
			}
		} else if int(p[0]) < len(s.LEDs) {
			s.LEDs[p[0]] = color
		}
	case comm.CmdSetStripEffect:
		copy(s.Effect[:], p)
	case comm.CmdSetBeep:
		s.BeepUntil = b.lastStep.Add(time.Duration(binary.LittleEndian.Uint16(p)) * time.Millisecond)
	case comm.CmdSetLight:
		s.Light = int(p[0])
	case comm.CmdSetAutoReportData:
		s.AutoReport = p[0] != 0
	case comm.CmdSetMinVelocity:
		s.MinVel = [2]uint8{p[0], p[1]}
	case comm.CmdSetGyroEnable:
		s.GyroAssist = p[0] != 0
	case comm.CmdSetPID:
		for n := range s.PID {
			s.PID[n] = binary.LittleEndian.Uint16(p[n*2:])
		}
	case comm.CmdSetArmServo:
		if id := int(p[0]); id >= 7 && id <= 9 {
			s.Arm[id-7] = int(binary.LittleEndian.Uint16(p[1:]))
		}
	case comm.CmdSetArmMotion:
		for n := range s.Arm {
			s.Arm[n] = int(binary.LittleEndian.Uint16(p[n*2:]))
		}
	case comm.CmdSetArmServoTorque:
		s.Torque = p[0] != 0
	case comm.CmdClearFlash:
		s.PID, s.MinVel, s.GyroAssist = initState.PID, initState.MinVel, initState.GyroAssist
	case comm.CmdSendRequest:
		b.request(comm.ResponseCode(p[0]), p[1])
	}
}

func (b *Board) request(code comm.ResponseCode, param byte) {
	s := &b.state
	switch code {
	case comm.RespFirmwareVersion:
		b.emit(code, FirmwareMajor, FirmwareMinor)
	case comm.RespYawAngle:
		yaw := int16(math.Round(s.Pose.Heading.Radians() * 1000))
		b.emit(code, le16(uint16(yaw))...)
	case comm.RespArmServoPosition:
		if param >= 7 && param <= 9 {
			b.emit(code, append([]byte{param}, le16(uint16(s.Arm[param-7]))...)...)
		}
	case comm.RespPIDParam:
		var p []byte
		for _, v := range s.PID {
			p = append(p, le16(v)...)
		}
		b.emit(code, p...)
	case comm.RespGyroAssistEnabled:
		b.emit(code, boolByte(s.GyroAssist))
	case comm.RespMotionStatus:
		b.emitMotion()
	}
}

func (b *Board) emitMotion() {
	s := &b.state
	p := make([]byte, 0, 16)
	p = append(p, byte(int8(s.Linear)))
	p = append(p, le16(uint16(int16(s.Angular)))...)
	// accel x, y, z: 1g on z
	p = append(p, 0, 0, 0, 0)
	p = append(p, le16(16384)...)
	// gyro z follows the turn rate
	p = append(p, 0, 0, 0, 0)
	p = append(p, le16(uint16(int16(s.Angular)))...)
	p = append(p, s.Battery)
	b.emit(comm.RespMotionStatus, p...)
}

func (b *Board) emit(code comm.ResponseCode, payload ...byte) {
	frame := append([]byte{comm.HeaderMark, comm.InboundMarker, byte(len(payload) + 3), byte(code)}, payload...)
	frame = append(frame, 0)
	frame[len(frame)-1] = comm.Checksum(frame)
	b.rx = append(b.rx, frame...)
}

func le16(v uint16) []byte {
	return []byte{byte(v), byte(v >> 8)}
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
