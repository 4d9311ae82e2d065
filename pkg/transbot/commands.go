package transbot

import (
	"encoding/binary"

	"github.com/robotalks/transbot.go/pkg/l0/comm"
)

// LEDAll addresses all LEDs of the strip.
const LEDAll = 0xff

// Camera servo channels.
const (
	CameraYaw   = 1
	CameraPitch = 2
)

// Arm servo IDs.
const (
	ArmServoMin = 7
	ArmServoMax = 9
)

// Arm servo position range.
const (
	ArmPositionMin = 96
	ArmPositionMax = 4000
)

func le16(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

func onOff(on bool) byte {
	if on {
		return 1
	}
	return 0
}

func saveFlag(on bool) byte {
	if on {
		return SaveFlag
	}
	return 0
}

// SetBeep beeps for ms milliseconds. 0 stops the buzzer and 1 keeps it on.
func (r *Robot) SetBeep(ms int) error {
	if err := checkRange("beep duration", ms, 0, 0xffff); err != nil {
		return err
	}
	return r.send(comm.CmdSetBeep, le16(uint16(ms))...)
}

// SetLight sets the headlight brightness in percent.
func (r *Robot) SetLight(percent int) error {
	if err := checkRange("light", percent, 0, 100); err != nil {
		return err
	}
	return r.send(comm.CmdSetLight, byte(percent))
}

// Drive sets the chassis velocity: linear in cm/s, angular in 0.01 rad/s.
func (r *Robot) Drive(linear, angular int) error {
	if err := checkRange("linear velocity", linear, -45, 45); err != nil {
		return err
	}
	if err := checkRange("angular velocity", angular, -200, 200); err != nil {
		return err
	}
	a := le16(uint16(int16(angular)))
	return r.send(comm.CmdSetChassisMotion, byte(int8(linear)), a[0], a[1])
}

// Stop stops the chassis.
func (r *Robot) Stop() error {
	return r.Drive(0, 0)
}

// SetCameraAngle turns a camera servo to angle degrees.
func (r *Robot) SetCameraAngle(channel, angle int) error {
	if err := checkRange("camera channel", channel, CameraYaw, CameraPitch); err != nil {
		return err
	}
	if err := checkRange("camera angle", angle, 0, 180); err != nil {
		return err
	}
	return r.send(comm.CmdSetPWMServo, byte(channel), byte(angle))
}

// SetLEDStrip sets the color of one LED, or all with LEDAll.
func (r *Robot) SetLEDStrip(id int, red, green, blue uint8) error {
	if id != LEDAll {
		if err := checkRange("led id", id, 0, 16); err != nil {
			return err
		}
	}
	return r.send(comm.CmdSetLEDStrip, byte(id), red, green, blue)
}

// SetStripEffect starts a built-in light effect.
func (r *Robot) SetStripEffect(effect, speed, param int) error {
	if err := checkRange("effect", effect, 0, 6); err != nil {
		return err
	}
	if err := checkRange("effect speed", speed, 1, 10); err != nil {
		return err
	}
	if err := checkRange("effect param", param, 0, 6); err != nil {
		return err
	}
	return r.send(comm.CmdSetStripEffect, byte(effect), byte(speed), byte(param))
}

// SetAutoReport toggles periodic MOTION_STATUS reports.
func (r *Robot) SetAutoReport(enable bool) error {
	return r.send(comm.CmdSetAutoReportData, onOff(enable))
}

// SetMotorPWM drives both motors directly by duty cycle in percent.
func (r *Robot) SetMotorPWM(m1, m2 int) error {
	if err := checkRange("motor 1 pwm", m1, -100, 100); err != nil {
		return err
	}
	if err := checkRange("motor 2 pwm", m2, -100, 100); err != nil {
		return err
	}
	return r.send(comm.CmdSetPWMMotor, byte(int8(m1)), byte(int8(m2)), 0)
}

// SetMinVelocity sets the lowest effective velocities.
func (r *Robot) SetMinVelocity(linear, angular int, persist bool) error {
	if err := checkRange("min linear velocity", linear, 0, 20); err != nil {
		return err
	}
	if err := checkRange("min angular velocity", angular, 0, 100); err != nil {
		return err
	}
	return r.send(comm.CmdSetMinVelocity, byte(linear), byte(angular), saveFlag(persist))
}

// SetGyroAssist toggles heading correction while driving straight.
func (r *Robot) SetGyroAssist(enable, persist bool) error {
	return r.send(comm.CmdSetGyroEnable, onOff(enable), saveFlag(persist))
}

// MoveStraight drives forward or backward in cm/s.
func (r *Robot) MoveStraight(speed int) error {
	if err := checkRange("speed", speed, -45, 45); err != nil {
		return err
	}
	return r.send(comm.CmdSetMotorForward, byte(int8(speed)))
}

// SetArmServo moves one arm servo to position in ms milliseconds.
func (r *Robot) SetArmServo(id, position, ms int) error {
	if err := checkRange("arm servo id", id, ArmServoMin, ArmServoMax); err != nil {
		return err
	}
	if err := checkRange("arm servo position", position, ArmPositionMin, ArmPositionMax); err != nil {
		return err
	}
	if err := checkRange("arm servo time", ms, 0, 2000); err != nil {
		return err
	}
	payload := append([]byte{byte(id)}, le16(uint16(position))...)
	return r.send(comm.CmdSetArmServo, append(payload, le16(uint16(ms))...)...)
}

// SetServoID assigns an ID to the only servo on the bus.
func (r *Robot) SetServoID(id int) error {
	if err := checkRange("servo id", id, 1, 250); err != nil {
		return err
	}
	return r.send(comm.CmdSetServoID, byte(id))
}

// SetArmTorque toggles holding torque of the arm servos.
func (r *Robot) SetArmTorque(enable bool) error {
	return r.send(comm.CmdSetArmServoTorque, onOff(enable))
}

// SetArmJoints moves all three arm joints at once.
func (r *Robot) SetArmJoints(positions [3]int) error {
	payload := make([]byte, 0, 6)
	for _, pos := range positions {
		if err := checkRange("arm joint position", pos, ArmPositionMin, ArmPositionMax); err != nil {
			return err
		}
		payload = append(payload, le16(uint16(pos))...)
	}
	return r.send(comm.CmdSetArmMotion, payload...)
}

// SetPID sets the motor PID parameters, each in [0, 10].
func (r *Robot) SetPID(p PIDParameters, persist bool) error {
	kp, err := checkScaled("kp", p.Kp, 10)
	if err != nil {
		return err
	}
	ki, err := checkScaled("ki", p.Ki, 10)
	if err != nil {
		return err
	}
	kd, err := checkScaled("kd", p.Kd, 10)
	if err != nil {
		return err
	}
	payload := append(le16(kp), le16(ki)...)
	payload = append(payload, le16(kd)...)
	return r.send(comm.CmdSetPID, append(payload, saveFlag(persist))...)
}

// ClearFlash resets persisted settings. The Engine refuses it unless
// enabled in its config.
func (r *Robot) ClearFlash() error {
	return r.send(comm.CmdClearFlash, SaveFlag)
}
