package transbot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/transbot.go/pkg/l0/comm"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "timeout" }
func (timeoutError) Timeout() bool { return true }

// fakeBoard is a Transport answering SEND_REQUEST with canned responses.
type fakeBoard struct {
	rx chan []byte

	lock      sync.Mutex
	open      bool
	writes    [][]byte
	responses map[byte][][]byte
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		rx:        make(chan []byte, 64),
		responses: make(map[byte][][]byte),
	}
}

func (b *fakeBoard) Open() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.open = true
	return nil
}

func (b *fakeBoard) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.open = false
	return nil
}

func (b *fakeBoard) isOpen() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.open
}

func (b *fakeBoard) Read(p []byte) (int, error) {
	if !b.isOpen() {
		return 0, io.ErrClosedPipe
	}
	select {
	case data := <-b.rx:
		return copy(p, data), nil
	case <-time.After(2 * time.Millisecond):
		return 0, timeoutError{}
	}
}

func (b *fakeBoard) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.writes = append(b.writes, append([]byte(nil), p...))
	if len(p) > 5 && p[3] == byte(comm.CmdSendRequest) {
		for _, resp := range b.responses[p[4]] {
			b.rx <- resp
		}
	}
	return len(p), nil
}

func (b *fakeBoard) respond(req comm.ResponseCode, frames ...[]byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.responses[byte(req)] = frames
}

func (b *fakeBoard) lastWrite() []byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	if len(b.writes) == 0 {
		return nil
	}
	return b.writes[len(b.writes)-1]
}

func encode(marker, code byte, payload ...byte) []byte {
	data := append([]byte{comm.HeaderMark, marker, byte(len(payload) + 3), code}, payload...)
	data = append(data, 0)
	data[len(data)-1] = comm.Checksum(data)
	return data
}

func outFrame(code comm.CommandCode, payload ...byte) []byte {
	return encode(comm.OutboundMarker, byte(code), payload...)
}

func inFrame(code comm.ResponseCode, payload ...byte) []byte {
	return encode(comm.InboundMarker, byte(code), payload...)
}

func newTestRobot(t *testing.T, conf comm.Config) (*Robot, *fakeBoard) {
	board := newFakeBoard()
	engine := comm.NewEngine(board, conf)
	require.NoError(t, engine.Open())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return New(engine), board
}

func TestCommandEncoding(t *testing.T) {
	robot, board := newTestRobot(t, comm.DefaultConfig())
	cases := []struct {
		name   string
		call   func() error
		expect []byte
	}{
		{"beep", func() error { return robot.SetBeep(10) }, []byte{0xff, 0xfe, 0x05, 0x06, 0x0a, 0x00, 0x15}},
		{"light", func() error { return robot.SetLight(100) }, outFrame(comm.CmdSetLight, 100)},
		{"drive", func() error { return robot.Drive(-10, -200) }, outFrame(comm.CmdSetChassisMotion, 0xf6, 0x38, 0xff)},
		{"stop", robot.Stop, outFrame(comm.CmdSetChassisMotion, 0, 0, 0)},
		{"camera", func() error { return robot.SetCameraAngle(CameraPitch, 90) }, outFrame(comm.CmdSetPWMServo, 2, 90)},
		{"led all", func() error { return robot.SetLEDStrip(LEDAll, 1, 2, 3) }, outFrame(comm.CmdSetLEDStrip, 0xff, 1, 2, 3)},
		{"effect", func() error { return robot.SetStripEffect(3, 5, 6) }, outFrame(comm.CmdSetStripEffect, 3, 5, 6)},
		{"auto report", func() error { return robot.SetAutoReport(true) }, outFrame(comm.CmdSetAutoReportData, 1)},
		{"motor pwm", func() error { return robot.SetMotorPWM(-100, 50) }, outFrame(comm.CmdSetPWMMotor, 0x9c, 50, 0)},
		{"min velocity", func() error { return robot.SetMinVelocity(5, 60, true) }, outFrame(comm.CmdSetMinVelocity, 5, 60, SaveFlag)},
		{"gyro assist", func() error { return robot.SetGyroAssist(true, false) }, outFrame(comm.CmdSetGyroEnable, 1, 0)},
		{"straight", func() error { return robot.MoveStraight(-45) }, outFrame(comm.CmdSetMotorForward, 0xd3)},
		{"arm servo", func() error { return robot.SetArmServo(8, 2000, 500) }, outFrame(comm.CmdSetArmServo, 8, 0xd0, 0x07, 0xf4, 0x01)},
		{"servo id", func() error { return robot.SetServoID(7) }, outFrame(comm.CmdSetServoID, 7)},
		{"torque", func() error { return robot.SetArmTorque(false) }, outFrame(comm.CmdSetArmServoTorque, 0)},
		{"arm joints", func() error { return robot.SetArmJoints([3]int{96, 2048, 4000}) }, outFrame(comm.CmdSetArmMotion, 0x60, 0, 0x00, 0x08, 0xa0, 0x0f)},
		{"pid", func() error { return robot.SetPID(PIDParameters{Kp: 0.8, Ki: 0.06, Kd: 10}, true) }, outFrame(comm.CmdSetPID, 0x20, 0x03, 0x3c, 0x00, 0x10, 0x27, SaveFlag)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.NoError(t, c.call())
			require.Equal(t, c.expect, board.lastWrite())
		})
	}
	require.Equal(t, uint64(len(cases)), robot.Engine().Metrics().FramesSent)
}

func TestCommandRange(t *testing.T) {
	robot, board := newTestRobot(t, comm.DefaultConfig())
	cases := []struct {
		field string
		call  func() error
	}{
		{"light", func() error { return robot.SetLight(101) }},
		{"beep duration", func() error { return robot.SetBeep(-1) }},
		{"linear velocity", func() error { return robot.Drive(46, 0) }},
		{"angular velocity", func() error { return robot.Drive(0, -201) }},
		{"camera channel", func() error { return robot.SetCameraAngle(3, 0) }},
		{"camera angle", func() error { return robot.SetCameraAngle(1, 181) }},
		{"led id", func() error { return robot.SetLEDStrip(17, 0, 0, 0) }},
		{"effect speed", func() error { return robot.SetStripEffect(0, 0, 0) }},
		{"motor 2 pwm", func() error { return robot.SetMotorPWM(0, 101) }},
		{"min angular velocity", func() error { return robot.SetMinVelocity(0, 101, false) }},
		{"arm servo id", func() error { return robot.SetArmServo(6, 100, 0) }},
		{"arm servo position", func() error { return robot.SetArmServo(7, 95, 0) }},
		{"arm servo time", func() error { return robot.SetArmServo(7, 100, 2001) }},
		{"servo id", func() error { return robot.SetServoID(0) }},
		{"arm joint position", func() error { return robot.SetArmJoints([3]int{100, 4001, 100}) }},
		{"kd", func() error { return robot.SetPID(PIDParameters{Kd: 10.1}, false) }},
	}
	for _, c := range cases {
		t.Run(c.field, func(t *testing.T) {
			err := c.call()
			var rangeErr *RangeError
			require.ErrorAs(t, err, &rangeErr)
			require.Equal(t, c.field, rangeErr.Field)
		})
	}
	require.Nil(t, board.lastWrite())
}

func TestClearFlash(t *testing.T) {
	robot, board := newTestRobot(t, comm.DefaultConfig())
	require.ErrorIs(t, robot.ClearFlash(), comm.ErrRefused)
	require.Nil(t, board.lastWrite())

	conf := comm.DefaultConfig()
	conf.AllowClearFlash = true
	robot, board = newTestRobot(t, conf)
	require.NoError(t, robot.ClearFlash())
	require.Equal(t, []byte{0xff, 0xfe, 0x04, 0xa0, 0x5f, 0x03}, board.lastWrite())
}

func TestQueries(t *testing.T) {
	robot, board := newTestRobot(t, comm.DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	board.respond(comm.RespFirmwareVersion, inFrame(comm.RespFirmwareVersion, 1, 5))
	ver, err := robot.FirmwareVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, FirmwareVersion{Major: 1, Minor: 5}, ver)
	require.Equal(t, "v1.5", ver.String())
	require.Equal(t, outFrame(comm.CmdSendRequest, byte(comm.RespFirmwareVersion), 0), board.lastWrite())

	board.respond(comm.RespYawAngle, inFrame(comm.RespYawAngle, 0xdd, 0xf9))
	yaw, err := robot.Yaw(ctx)
	require.NoError(t, err)
	require.InDelta(t, -1.571, yaw, 1e-9)

	board.respond(comm.RespArmServoPosition,
		inFrame(comm.RespArmServoPosition, 7, 0x00, 0x01),
		inFrame(comm.RespArmServoPosition, 8, 0xd0, 0x07))
	pos, err := robot.ArmServoPosition(ctx, 8)
	require.NoError(t, err)
	require.Equal(t, 2000, pos)
	require.Equal(t, outFrame(comm.CmdSendRequest, byte(comm.RespArmServoPosition), 8), board.lastWrite())

	board.respond(comm.RespPIDParam, inFrame(comm.RespPIDParam, 0x20, 0x03, 0x3c, 0x00, 0x10, 0x27))
	pid, err := robot.PIDParameters(ctx)
	require.NoError(t, err)
	require.Equal(t, PIDParameters{Kp: 0.8, Ki: 0.06, Kd: 10}, pid)

	board.respond(comm.RespGyroAssistEnabled, inFrame(comm.RespGyroAssistEnabled, 1))
	enabled, err := robot.GyroAssist(ctx)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestQueryDrainsStale(t *testing.T) {
	robot, board := newTestRobot(t, comm.DefaultConfig())
	board.rx <- inFrame(comm.RespFirmwareVersion, 0, 1)
	require.Eventually(t, func() bool {
		return robot.Engine().Pending(comm.RespFirmwareVersion) == 1
	}, time.Second, time.Millisecond)

	board.respond(comm.RespFirmwareVersion, inFrame(comm.RespFirmwareVersion, 2, 0))
	ver, err := robot.FirmwareVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, FirmwareVersion{Major: 2}, ver)
}

func TestQueryTimeout(t *testing.T) {
	robot, _ := newTestRobot(t, comm.DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := robot.Yaw(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = robot.ArmServoPosition(ctx, 10)
	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
}

func TestMotion(t *testing.T) {
	robot, board := newTestRobot(t, comm.DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	_, err := robot.Motion(ctx)
	cancel()
	require.ErrorIs(t, err, ErrNoTelemetry)

	board.rx <- inFrame(comm.RespMotionStatus, make([]byte, 16)...)
	board.rx <- inFrame(comm.RespMotionStatus,
		0xf6,       // -10 cm/s
		0x64, 0x00, // 100
		0x01, 0x00, 0x02, 0x00, 0xff, 0xff,
		0x0a, 0x00, 0xf6, 0xff, 0x00, 0x00,
		0x7b) // 12.3V
	require.Eventually(t, func() bool {
		return robot.Engine().Pending(comm.RespMotionStatus) == 2
	}, time.Second, time.Millisecond)

	s, err := robot.Motion(context.Background())
	require.NoError(t, err)
	require.Equal(t, int8(-10), s.Linear)
	require.Equal(t, int16(100), s.Angular)
	require.Equal(t, [3]int16{1, 2, -1}, s.Accel)
	require.Equal(t, [3]int16{10, -10, 0}, s.Gyro)
	require.InDelta(t, 12.3, s.Battery, 1e-9)
	require.Zero(t, robot.Engine().Pending(comm.RespMotionStatus))
}
