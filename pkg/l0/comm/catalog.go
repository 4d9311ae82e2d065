package comm

import (
	"fmt"
	"sort"
)

// Role is the direction of a message.
type Role int

// Roles
const (
	// RoleOutbound is a command sent to the board.
	RoleOutbound Role = iota + 1
	// RoleInbound is a response sent by the board.
	RoleInbound
)

// Header bytes
const (
	HeaderMark     byte = 0xff
	OutboundMarker byte = 0xfe
	InboundMarker  byte = 0xfd
)

// Frame layout
const (
	// HeaderLen covers the two marker bytes, the length byte and the code.
	HeaderLen = 4
	// Overhead is the number of non-payload bytes in a frame.
	Overhead = HeaderLen + 1
	// MaxFrameLen is the total length of the longest frame in the catalog.
	MaxFrameLen = 0x13 + 2
)

// Marker returns the second header byte for the role.
func (r Role) Marker() byte {
	if r == RoleInbound {
		return InboundMarker
	}
	return OutboundMarker
}

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RoleOutbound:
		return "outbound"
	case RoleInbound:
		return "inbound"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// CommandCode is the code of an outbound message.
type CommandCode byte

// Command codes
const (
	CmdSetPID            CommandCode = 0x01
	CmdSetChassisMotion  CommandCode = 0x02
	CmdSetPWMServo       CommandCode = 0x03
	CmdSetLEDStrip       CommandCode = 0x04
	CmdSetStripEffect    CommandCode = 0x05
	CmdSetBeep           CommandCode = 0x06
	CmdSetLight          CommandCode = 0x07
	CmdSetAutoReportData CommandCode = 0x08
	CmdSetPWMMotor       CommandCode = 0x09
	CmdSetMinVelocity    CommandCode = 0x0b
	CmdSetGyroEnable     CommandCode = 0x0c
	CmdSetMotorForward   CommandCode = 0x0d
	CmdSetArmServo       CommandCode = 0x20
	CmdSetServoID        CommandCode = 0x21
	CmdSetArmServoTorque CommandCode = 0x22
	CmdSetArmMotion      CommandCode = 0x23
	CmdSendRequest       CommandCode = 0x50
	CmdClearFlash        CommandCode = 0xa0
)

// ResponseCode is the code of an inbound message.
type ResponseCode byte

// Response codes
const (
	RespPIDParam          ResponseCode = 0x01
	RespMotionStatus      ResponseCode = 0x08
	RespGyroAssistEnabled ResponseCode = 0x0c
	RespArmServoPosition  ResponseCode = 0x20
	RespFirmwareVersion   ResponseCode = 0x51
	RespYawAngle          ResponseCode = 0x52
)

// Descriptor describes the layout of one message type.
type Descriptor struct {
	Name   string
	Role   Role
	Code   byte
	Length int // total frame length
}

// PayloadLen returns the number of payload bytes.
func (d Descriptor) PayloadLen() int {
	return d.Length - Overhead
}

// Command returns the command code if the descriptor is outbound.
func (d Descriptor) Command() (CommandCode, bool) {
	return CommandCode(d.Code), d.Role == RoleOutbound
}

// Response returns the response code if the descriptor is inbound.
func (d Descriptor) Response() (ResponseCode, bool) {
	return ResponseCode(d.Code), d.Role == RoleInbound
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%02x)", d.Name, d.Code)
}

func outbound(name string, code CommandCode, lengthByte byte) Descriptor {
	return Descriptor{Name: name, Role: RoleOutbound, Code: byte(code), Length: int(lengthByte) + 2}
}

func inbound(name string, code ResponseCode, lengthByte byte) Descriptor {
	return Descriptor{Name: name, Role: RoleInbound, Code: byte(code), Length: int(lengthByte) + 2}
}

// The catalogs are never modified after package initialization.
var (
	commandCatalog = map[CommandCode]Descriptor{
		CmdSetPID:            outbound("SET_PID", CmdSetPID, 0x0a),
		CmdSetChassisMotion:  outbound("SET_CHASSIS_MOTION", CmdSetChassisMotion, 0x06),
		CmdSetPWMServo:       outbound("SET_PWM_SERVO", CmdSetPWMServo, 0x05),
		CmdSetLEDStrip:       outbound("SET_LED_STRIP", CmdSetLEDStrip, 0x07),
		CmdSetStripEffect:    outbound("SET_STRIP_EFFECT", CmdSetStripEffect, 0x06),
		CmdSetBeep:           outbound("SET_BEEP", CmdSetBeep, 0x05),
		CmdSetLight:          outbound("SET_LIGHT", CmdSetLight, 0x04),
		CmdSetAutoReportData: outbound("SET_AUTO_REPORT_DATA", CmdSetAutoReportData, 0x04),
		CmdSetPWMMotor:       outbound("SET_PWM_MOTOR", CmdSetPWMMotor, 0x06),
		CmdSetMinVelocity:    outbound("SET_MIN_VELOCITY", CmdSetMinVelocity, 0x06),
		CmdSetGyroEnable:     outbound("SET_GYRO_ENABLE", CmdSetGyroEnable, 0x05),
		CmdSetMotorForward:   outbound("SET_MOTOR_FORWARD", CmdSetMotorForward, 0x04),
		CmdSetArmServo:       outbound("SET_ARM_SERVO", CmdSetArmServo, 0x08),
		CmdSetServoID:        outbound("SET_SERVO_ID", CmdSetServoID, 0x04),
		CmdSetArmServoTorque: outbound("SET_ARM_SERVO_TORQUE", CmdSetArmServoTorque, 0x04),
		CmdSetArmMotion:      outbound("SET_ARM_MOTION", CmdSetArmMotion, 0x09),
		CmdSendRequest:       outbound("SEND_REQUEST", CmdSendRequest, 0x05),
		CmdClearFlash:        outbound("CLEAR_FLASH", CmdClearFlash, 0x04),
	}

	responseCatalog = map[ResponseCode]Descriptor{
		RespFirmwareVersion:   inbound("FIRMWARE_VERSION", RespFirmwareVersion, 0x05),
		RespYawAngle:          inbound("YAW_ANGLE", RespYawAngle, 0x05),
		RespArmServoPosition:  inbound("ARM_SERVO_POSITION", RespArmServoPosition, 0x06),
		RespMotionStatus:      inbound("MOTION_STATUS", RespMotionStatus, 0x13),
		RespPIDParam:          inbound("PID_PARAM", RespPIDParam, 0x09),
		RespGyroAssistEnabled: inbound("GYRO_ASSIST_ENABLED", RespGyroAssistEnabled, 0x04),
	}
)

// LookupCommand finds the descriptor of an outbound code.
func LookupCommand(code CommandCode) (Descriptor, error) {
	if d, ok := commandCatalog[code]; ok {
		return d, nil
	}
	return Descriptor{}, fmt.Errorf("%w: command %02x", ErrUnknownMessageType, byte(code))
}

// LookupResponse finds the descriptor of an inbound code.
func LookupResponse(code ResponseCode) (Descriptor, error) {
	if d, ok := responseCatalog[code]; ok {
		return d, nil
	}
	return Descriptor{}, fmt.Errorf("%w: response %02x", ErrUnknownMessageType, byte(code))
}

// String implements fmt.Stringer.
func (c CommandCode) String() string {
	if d, ok := commandCatalog[c]; ok {
		return d.Name
	}
	return fmt.Sprintf("command(%02x)", byte(c))
}

// String implements fmt.Stringer.
func (c ResponseCode) String() string {
	if d, ok := responseCatalog[c]; ok {
		return d.Name
	}
	return fmt.Sprintf("response(%02x)", byte(c))
}

// Catalog lists all descriptors of a role ordered by code.
func Catalog(role Role) []Descriptor {
	var list []Descriptor
	switch role {
	case RoleOutbound:
		for _, d := range commandCatalog {
			list = append(list, d)
		}
	case RoleInbound:
		for _, d := range responseCatalog {
			list = append(list, d)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}
