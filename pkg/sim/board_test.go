package sim_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/transbot.go/pkg/l0/comm"
	"github.com/robotalks/transbot.go/pkg/sim"
	"github.com/robotalks/transbot.go/pkg/transbot"
)

func newRobot(t *testing.T, conf comm.Config) (*transbot.Robot, *sim.Board) {
	board := sim.NewBoard()
	board.ReadTimeout = 5 * time.Millisecond
	board.ReportInterval = 10 * time.Millisecond
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
	return transbot.New(engine), board
}

func queryCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestBoardCommands(t *testing.T) {
	robot, board := newRobot(t, comm.DefaultConfig())

	require.NoError(t, robot.SetLight(60))
	require.NoError(t, robot.SetLEDStrip(transbot.LEDAll, 1, 2, 3))
	require.NoError(t, robot.SetCameraAngle(transbot.CameraPitch, 45))
	require.NoError(t, robot.SetArmJoints([3]int{100, 200, 300}))
	require.NoError(t, robot.SetArmServo(8, 1000, 100))
	require.NoError(t, robot.SetArmTorque(false))
	require.NoError(t, robot.SetGyroAssist(true, false))

	s := board.State()
	require.Equal(t, 60, s.Light)
	require.Equal(t, [3]uint8{1, 2, 3}, s.LEDs[16])
	require.Equal(t, 45, s.Camera[1])
	require.Equal(t, [3]int{100, 1000, 300}, s.Arm)
	require.False(t, s.Torque)
	require.True(t, s.GyroAssist)
	require.Zero(t, board.Rejected())
}

func TestBoardQueries(t *testing.T) {
	robot, _ := newRobot(t, comm.DefaultConfig())

	v, err := robot.FirmwareVersion(queryCtx(t))
	require.NoError(t, err)
	require.Equal(t, transbot.FirmwareVersion{Major: sim.FirmwareMajor, Minor: sim.FirmwareMinor}, v)

	require.NoError(t, robot.SetArmServo(9, 3000, 0))
	pos, err := robot.ArmServoPosition(queryCtx(t), 9)
	require.NoError(t, err)
	require.Equal(t, 3000, pos)

	require.NoError(t, robot.SetPID(transbot.PIDParameters{Kp: 1.5, Ki: 0.1, Kd: 2}, false))
	pid, err := robot.PIDParameters(queryCtx(t))
	require.NoError(t, err)
	require.InDelta(t, 1.5, pid.Kp, 1e-9)
	require.InDelta(t, 0.1, pid.Ki, 1e-9)
	require.InDelta(t, 2.0, pid.Kd, 1e-9)

	enabled, err := robot.GyroAssist(queryCtx(t))
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestBoardMotion(t *testing.T) {
	robot, board := newRobot(t, comm.DefaultConfig())

	require.NoError(t, robot.Drive(20, 100))
	require.NoError(t, robot.SetAutoReport(true))
	require.Eventually(t, func() bool {
		m, err := robot.Motion(queryCtx(t))
		return err == nil && m.Linear == 20 && m.Angular == 100
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, robot.Stop())
	s := board.State()
	require.Zero(t, s.Linear)
	require.NotZero(t, s.Pose.X)
	require.Greater(t, s.Pose.Heading.Radians(), 0.0)

	yaw, err := robot.Yaw(queryCtx(t))
	require.NoError(t, err)
	require.InDelta(t, s.Pose.Heading.Radians(), yaw, 0.001)
}

func TestBoardRejectsMalformed(t *testing.T) {
	board := sim.NewBoard()
	require.NoError(t, board.Open())
	frame := []byte{0xff, 0xfe, 0x04, 0x07, 50, 0x00}
	_, err := board.Write(frame)
	require.NoError(t, err)
	require.Equal(t, 1, board.Rejected())
	require.Zero(t, board.State().Light)

	frame[5] = comm.Checksum(frame)
	_, err = board.Write(frame)
	require.NoError(t, err)
	require.Equal(t, 50, board.State().Light)
}

func TestBoardReconnect(t *testing.T) {
	conf := comm.DefaultConfig()
	conf.RetryDelay = 5 * time.Millisecond
	robot, board := newRobot(t, conf)

	board.Unplug()
	require.Eventually(t, func() bool {
		return robot.Engine().State() == comm.StateReconnecting
	}, time.Second, time.Millisecond)
	require.ErrorIs(t, robot.SetLight(10), comm.ErrNotReady)

	board.Plug()
	require.Eventually(t, func() bool {
		return robot.Engine().State() == comm.StateOpen
	}, time.Second, time.Millisecond)
	require.NoError(t, robot.SetLight(10))
	require.Equal(t, 10, board.State().Light)
	require.Equal(t, uint64(1), robot.Engine().Metrics().Reconnects)
}

func TestPoseAdvance(t *testing.T) {
	h := sim.HeadingOf(3 * math.Pi / 2)
	require.InDelta(t, -math.Pi/2, h.Radians(), 1e-9)
	require.InDelta(t, math.Pi/2, h.Turn(math.Pi).Radians(), 1e-9)
	require.InDelta(t, math.Pi, sim.HeadingOf(-math.Pi).Radians(), 1e-9)

	var pose sim.Pose
	pose.Advance(10, math.Pi/2)
	require.InDelta(t, 10, pose.X, 1e-9)
	require.InDelta(t, 0, pose.Y, 1e-9)
	pose.Advance(5, 0)
	require.InDelta(t, 10, pose.X, 1e-9)
	require.InDelta(t, 5, pose.Y, 1e-9)
}
