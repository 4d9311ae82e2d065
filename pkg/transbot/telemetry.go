package transbot

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/robotalks/transbot.go/pkg/l0/comm"
)

// FirmwareVersion is the board firmware version.
type FirmwareVersion struct {
	Major uint8
	Minor uint8
}

// String implements fmt.Stringer.
func (v FirmwareVersion) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// PIDParameters are the motor PID gains.
type PIDParameters struct {
	Kp, Ki, Kd float64
}

// MotionStatus is the periodic report of the chassis.
type MotionStatus struct {
	// Linear velocity in cm/s.
	Linear int8
	// Angular velocity in 0.01 rad/s.
	Angular int16
	Accel   [3]int16
	Gyro    [3]int16
	// Battery voltage in volts.
	Battery float64
	// Time is when the report was taken from the Engine.
	Time time.Time
}

// DecodeMotionStatus decodes a MOTION_STATUS payload.
func DecodeMotionStatus(p []byte) (s MotionStatus, err error) {
	if len(p) != 16 {
		return s, fmt.Errorf("%w: motion status payload %d bytes", comm.ErrLengthMismatch, len(p))
	}
	s.Linear = int8(p[0])
	s.Angular = int16(binary.LittleEndian.Uint16(p[1:]))
	for n := 0; n < 3; n++ {
		s.Accel[n] = int16(binary.LittleEndian.Uint16(p[3+n*2:]))
		s.Gyro[n] = int16(binary.LittleEndian.Uint16(p[9+n*2:]))
	}
	s.Battery = float64(p[15]) / 10
	return s, nil
}

func decodePID(p []byte) PIDParameters {
	return PIDParameters{
		Kp: float64(binary.LittleEndian.Uint16(p[0:])) / 1000,
		Ki: float64(binary.LittleEndian.Uint16(p[2:])) / 1000,
		Kd: float64(binary.LittleEndian.Uint16(p[4:])) / 1000,
	}
}

// FirmwareVersion queries the firmware version.
func (r *Robot) FirmwareVersion(ctx context.Context) (v FirmwareVersion, err error) {
	err = r.query(ctx, comm.RespFirmwareVersion, 0, func(p []byte) bool {
		v.Major, v.Minor = p[0], p[1]
		return true
	})
	return
}

// Yaw queries the heading in radians.
func (r *Robot) Yaw(ctx context.Context) (yaw float64, err error) {
	err = r.query(ctx, comm.RespYawAngle, 0, func(p []byte) bool {
		yaw = float64(int16(binary.LittleEndian.Uint16(p))) / 1000
		return true
	})
	return
}

// ArmServoPosition queries the position of an arm servo.
func (r *Robot) ArmServoPosition(ctx context.Context, id int) (pos int, err error) {
	if err = checkRange("arm servo id", id, ArmServoMin, ArmServoMax); err != nil {
		return
	}
	err = r.query(ctx, comm.RespArmServoPosition, byte(id), func(p []byte) bool {
		if int(p[0]) != id {
			return false
		}
		pos = int(binary.LittleEndian.Uint16(p[1:]))
		return true
	})
	return
}

// PIDParameters queries the motor PID gains.
func (r *Robot) PIDParameters(ctx context.Context) (pid PIDParameters, err error) {
	err = r.query(ctx, comm.RespPIDParam, 0, func(p []byte) bool {
		pid = decodePID(p)
		return true
	})
	return
}

// GyroAssist queries whether gyro assist is enabled.
func (r *Robot) GyroAssist(ctx context.Context) (enabled bool, err error) {
	err = r.query(ctx, comm.RespGyroAssistEnabled, 0, func(p []byte) bool {
		enabled = p[0] != 0
		return true
	})
	return
}

// Motion returns the newest MOTION_STATUS, dropping older ones. It
// waits for a report until ctx is done.
func (r *Robot) Motion(ctx context.Context) (MotionStatus, error) {
	interval := r.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		f, err := r.engine.TakeLatest(comm.RespMotionStatus)
		if err == nil {
			payload, err := f.Payload()
			f.Release()
			if err != nil {
				return MotionStatus{}, err
			}
			s, err := DecodeMotionStatus(payload)
			s.Time = time.Now()
			return s, err
		}
		if !isNoResponse(err) {
			return MotionStatus{}, err
		}
		select {
		case <-ctx.Done():
			return MotionStatus{}, fmt.Errorf("%w: %v", ErrNoTelemetry, ctx.Err())
		case <-time.After(interval):
		}
	}
}
