package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l1/msgs"
)

// Drive sets the chassis velocity.
type Drive struct {
	Linear  int32 `protobuf:"varint,1,opt,name=linear,proto3" json:"linear,omitempty"`  // cm/s
	Angular int32 `protobuf:"varint,2,opt,name=angular,proto3" json:"angular,omitempty"` // 0.01 rad/s
}

// NewMessage implements Message.
func (m *Drive) NewMessage() fx.Message { return &Drive{} }

// TypeID implements SerializableMessage.
func (m *Drive) TypeID() uint32 { return DriveTypeID }

// Serializable implements SerializableMessage.
func (m *Drive) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Drive) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Drive) Reset() { *m = Drive{} }

// String implements proto.Message.
func (m *Drive) String() string { return proto.CompactTextString(m) }

// Beep sounds the buzzer.
type Beep struct {
	DurationMs uint32 `protobuf:"varint,1,opt,name=duration_ms,json=durationMs,proto3" json:"duration_ms,omitempty"`
}

// NewMessage implements Message.
func (m *Beep) NewMessage() fx.Message { return &Beep{} }

// TypeID implements SerializableMessage.
func (m *Beep) TypeID() uint32 { return BeepTypeID }

// Serializable implements SerializableMessage.
func (m *Beep) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Beep) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Beep) Reset() { *m = Beep{} }

// String implements proto.Message.
func (m *Beep) String() string { return proto.CompactTextString(m) }

// Light sets the headlight brightness in percent.
type Light struct {
	Level uint32 `protobuf:"varint,1,opt,name=level,proto3" json:"level,omitempty"`
}

// NewMessage implements Message.
func (m *Light) NewMessage() fx.Message { return &Light{} }

// TypeID implements SerializableMessage.
func (m *Light) TypeID() uint32 { return LightTypeID }

// Serializable implements SerializableMessage.
func (m *Light) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Light) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Light) Reset() { *m = Light{} }

// String implements proto.Message.
func (m *Light) String() string { return proto.CompactTextString(m) }

// LEDStrip sets the color of one LED or all (ID 255).
type LEDStrip struct {
	ID uint32 `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	R  uint32 `protobuf:"varint,2,opt,name=r,proto3" json:"r,omitempty"`
	G  uint32 `protobuf:"varint,3,opt,name=g,proto3" json:"g,omitempty"`
	B  uint32 `protobuf:"varint,4,opt,name=b,proto3" json:"b,omitempty"`
}

// NewMessage implements Message.
func (m *LEDStrip) NewMessage() fx.Message { return &LEDStrip{} }

// TypeID implements SerializableMessage.
func (m *LEDStrip) TypeID() uint32 { return LEDStripTypeID }

// Serializable implements SerializableMessage.
func (m *LEDStrip) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *LEDStrip) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LEDStrip) Reset() { *m = LEDStrip{} }

// String implements proto.Message.
func (m *LEDStrip) String() string { return proto.CompactTextString(m) }

// StripEffect starts a light effect.
type StripEffect struct {
	Effect uint32 `protobuf:"varint,1,opt,name=effect,proto3" json:"effect,omitempty"`
	Speed  uint32 `protobuf:"varint,2,opt,name=speed,proto3" json:"speed,omitempty"`
	Param  uint32 `protobuf:"varint,3,opt,name=param,proto3" json:"param,omitempty"`
}

// NewMessage implements Message.
func (m *StripEffect) NewMessage() fx.Message { return &StripEffect{} }

// TypeID implements SerializableMessage.
func (m *StripEffect) TypeID() uint32 { return StripEffectTypeID }

// Serializable implements SerializableMessage.
func (m *StripEffect) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StripEffect) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StripEffect) Reset() { *m = StripEffect{} }

// String implements proto.Message.
func (m *StripEffect) String() string { return proto.CompactTextString(m) }

// CameraAngle turns a camera servo.
type CameraAngle struct {
	Channel uint32 `protobuf:"varint,1,opt,name=channel,proto3" json:"channel,omitempty"`
	Angle   uint32 `protobuf:"varint,2,opt,name=angle,proto3" json:"angle,omitempty"`
}

// NewMessage implements Message.
func (m *CameraAngle) NewMessage() fx.Message { return &CameraAngle{} }

// TypeID implements SerializableMessage.
func (m *CameraAngle) TypeID() uint32 { return CameraAngleTypeID }

// Serializable implements SerializableMessage.
func (m *CameraAngle) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CameraAngle) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CameraAngle) Reset() { *m = CameraAngle{} }

// String implements proto.Message.
func (m *CameraAngle) String() string { return proto.CompactTextString(m) }

// ArmJoints moves the three arm joints.
type ArmJoints struct {
	Positions []uint32 `protobuf:"varint,1,rep,packed,name=positions,proto3" json:"positions,omitempty"`
}

// NewMessage implements Message.
func (m *ArmJoints) NewMessage() fx.Message { return &ArmJoints{} }

// TypeID implements SerializableMessage.
func (m *ArmJoints) TypeID() uint32 { return ArmJointsTypeID }

// Serializable implements SerializableMessage.
func (m *ArmJoints) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ArmJoints) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ArmJoints) Reset() { *m = ArmJoints{} }

// String implements proto.Message.
func (m *ArmJoints) String() string { return proto.CompactTextString(m) }

// ArmServo moves one arm servo.
type ArmServo struct {
	ID       uint32 `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Position uint32 `protobuf:"varint,2,opt,name=position,proto3" json:"position,omitempty"`
	TimeMs   uint32 `protobuf:"varint,3,opt,name=time_ms,json=timeMs,proto3" json:"time_ms,omitempty"`
}

// NewMessage implements Message.
func (m *ArmServo) NewMessage() fx.Message { return &ArmServo{} }

// TypeID implements SerializableMessage.
func (m *ArmServo) TypeID() uint32 { return ArmServoTypeID }

// Serializable implements SerializableMessage.
func (m *ArmServo) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ArmServo) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ArmServo) Reset() { *m = ArmServo{} }

// String implements proto.Message.
func (m *ArmServo) String() string { return proto.CompactTextString(m) }

// ArmTorque toggles holding torque of the arm.
type ArmTorque struct {
	Enable bool `protobuf:"varint,1,opt,name=enable,proto3" json:"enable,omitempty"`
}

// NewMessage implements Message.
func (m *ArmTorque) NewMessage() fx.Message { return &ArmTorque{} }

// TypeID implements SerializableMessage.
func (m *ArmTorque) TypeID() uint32 { return ArmTorqueTypeID }

// Serializable implements SerializableMessage.
func (m *ArmTorque) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ArmTorque) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ArmTorque) Reset() { *m = ArmTorque{} }

// String implements proto.Message.
func (m *ArmTorque) String() string { return proto.CompactTextString(m) }

// GyroAssist toggles heading correction.
type GyroAssist struct {
	Enable bool `protobuf:"varint,1,opt,name=enable,proto3" json:"enable,omitempty"`
	Save   bool `protobuf:"varint,2,opt,name=save,proto3" json:"save,omitempty"`
}

// NewMessage implements Message.
func (m *GyroAssist) NewMessage() fx.Message { return &GyroAssist{} }

// TypeID implements SerializableMessage.
func (m *GyroAssist) TypeID() uint32 { return GyroAssistTypeID }

// Serializable implements SerializableMessage.
func (m *GyroAssist) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *GyroAssist) ProtoMessage() {}

// Reset implements proto.Message.
func (m *GyroAssist) Reset() { *m = GyroAssist{} }

// String implements proto.Message.
func (m *GyroAssist) String() string { return proto.CompactTextString(m) }

// StatusQuery asks for the latest Status.
type StatusQuery struct {
}

// NewMessage implements Message.
func (m *StatusQuery) NewMessage() fx.Message { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply is the response of StatusQuery.
type StatusReply struct {
	Status *Status `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *StatusReply) NewMessage() fx.Message { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *StatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// VersionQuery asks for the firmware version.
type VersionQuery struct {
}

// NewMessage implements Message.
func (m *VersionQuery) NewMessage() fx.Message { return &VersionQuery{} }

// TypeID implements SerializableMessage.
func (m *VersionQuery) TypeID() uint32 { return VersionQueryTypeID }

// Serializable implements SerializableMessage.
func (m *VersionQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *VersionQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *VersionQuery) Reset() { *m = VersionQuery{} }

// String implements proto.Message.
func (m *VersionQuery) String() string { return proto.CompactTextString(m) }

// Version is the response of VersionQuery.
type Version struct {
	Major uint32 `protobuf:"varint,1,opt,name=major,proto3" json:"major,omitempty"`
	Minor uint32 `protobuf:"varint,2,opt,name=minor,proto3" json:"minor,omitempty"`
}

// NewMessage implements Message.
func (m *Version) NewMessage() fx.Message { return &Version{} }

// TypeID implements SerializableMessage.
func (m *Version) TypeID() uint32 { return VersionTypeID }

// Serializable implements SerializableMessage.
func (m *Version) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Version) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Version) Reset() { *m = Version{} }

// String implements proto.Message.
func (m *Version) String() string { return proto.CompactTextString(m) }

// YawQuery asks for the heading.
type YawQuery struct {
}

// NewMessage implements Message.
func (m *YawQuery) NewMessage() fx.Message { return &YawQuery{} }

// TypeID implements SerializableMessage.
func (m *YawQuery) TypeID() uint32 { return YawQueryTypeID }

// Serializable implements SerializableMessage.
func (m *YawQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *YawQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *YawQuery) Reset() { *m = YawQuery{} }

// String implements proto.Message.
func (m *YawQuery) String() string { return proto.CompactTextString(m) }

// Yaw is the response of YawQuery.
type Yaw struct {
	Radians float32 `protobuf:"fixed32,1,opt,name=radians,proto3" json:"radians,omitempty"`
}

// NewMessage implements Message.
func (m *Yaw) NewMessage() fx.Message { return &Yaw{} }

// TypeID implements SerializableMessage.
func (m *Yaw) TypeID() uint32 { return YawTypeID }

// Serializable implements SerializableMessage.
func (m *Yaw) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Yaw) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Yaw) Reset() { *m = Yaw{} }

// String implements proto.Message.
func (m *Yaw) String() string { return proto.CompactTextString(m) }

// Status is the event reporting chassis telemetry and link health.
type Status struct {
	Linear         int32   `protobuf:"varint,1,opt,name=linear,proto3" json:"linear,omitempty"`
	Angular        int32   `protobuf:"varint,2,opt,name=angular,proto3" json:"angular,omitempty"`
	Accel          []int32 `protobuf:"varint,3,rep,packed,name=accel,proto3" json:"accel,omitempty"`
	Gyro           []int32 `protobuf:"varint,4,rep,packed,name=gyro,proto3" json:"gyro,omitempty"`
	Battery        float32 `protobuf:"fixed32,5,opt,name=battery,proto3" json:"battery,omitempty"`
	Link           string  `protobuf:"bytes,6,opt,name=link,proto3" json:"link,omitempty"`
	FramesReceived uint64  `protobuf:"varint,7,opt,name=frames_received,json=framesReceived,proto3" json:"frames_received,omitempty"`
	FramesDropped  uint64  `protobuf:"varint,8,opt,name=frames_dropped,json=framesDropped,proto3" json:"frames_dropped,omitempty"`
	Reconnects     uint64  `protobuf:"varint,9,opt,name=reconnects,proto3" json:"reconnects,omitempty"`
}

// NewMessage implements Message.
func (m *Status) NewMessage() fx.Message { return &Status{} }

// TypeID implements SerializableMessage.
func (m *Status) TypeID() uint32 { return StatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *Status) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// GroupTransbot is the group of Transbot messages.
const GroupTransbot = msgs.GroupCustom | 0x00010000

// TypeIDs
const (
	DriveTypeID        uint32 = GroupTransbot | 0x0001
	BeepTypeID         uint32 = GroupTransbot | 0x0002
	LightTypeID        uint32 = GroupTransbot | 0x0003
	LEDStripTypeID     uint32 = GroupTransbot | 0x0004
	StripEffectTypeID  uint32 = GroupTransbot | 0x0005
	CameraAngleTypeID  uint32 = GroupTransbot | 0x0006
	ArmJointsTypeID    uint32 = GroupTransbot | 0x0007
	ArmServoTypeID     uint32 = GroupTransbot | 0x0008
	ArmTorqueTypeID    uint32 = GroupTransbot | 0x0009
	GyroAssistTypeID   uint32 = GroupTransbot | 0x000a
	StatusQueryTypeID  uint32 = GroupTransbot | 0x0010
	StatusReplyTypeID  uint32 = StatusQueryTypeID | msgs.TypeIDMaskReply
	VersionQueryTypeID uint32 = GroupTransbot | 0x0011
	VersionTypeID      uint32 = VersionQueryTypeID | msgs.TypeIDMaskReply
	YawQueryTypeID     uint32 = GroupTransbot | 0x0012
	YawTypeID          uint32 = YawQueryTypeID | msgs.TypeIDMaskReply
	StatusEventTypeID  uint32 = GroupTransbot | msgs.TypeIDKindEvent | 0x0000
)

func init() {
	for _, m := range []msgs.SerializableMessage{
		(*Drive)(nil), (*Beep)(nil), (*Light)(nil), (*LEDStrip)(nil),
		(*StripEffect)(nil), (*CameraAngle)(nil), (*ArmJoints)(nil),
		(*ArmServo)(nil), (*ArmTorque)(nil), (*GyroAssist)(nil),
		(*StatusQuery)(nil), (*StatusReply)(nil),
		(*VersionQuery)(nil), (*Version)(nil),
		(*YawQuery)(nil), (*Yaw)(nil),
		(*Status)(nil),
	} {
		msgs.MessageTypes[m.TypeID()] = m
	}
}
