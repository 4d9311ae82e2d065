package transbot

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l0/comm"
	"github.com/robotalks/transbot.go/pkg/l1"
	l1msgs "github.com/robotalks/transbot.go/pkg/l1/msgs"
	"github.com/robotalks/transbot.go/pkg/transbot/msgs"
)

// Controller is the L1 controller of a Transbot. It executes remote
// commands on the Robot and publishes Status events.
type Controller struct {
	Robot     *Robot
	Registrar l1.Registrar

	TelemetryInterval time.Duration
	QueryTimeout      time.Duration
	AutoReport        bool

	status        msgs.Status
	statusChanged bool
}

// NewController creates a Controller.
func NewController(robot *Robot, reg l1.Registrar) *Controller {
	return &Controller{
		Robot:             robot,
		Registrar:         reg,
		TelemetryInterval: defaultConfig.TelemetryInterval,
		QueryTimeout:      defaultConfig.QueryTimeout,
		AutoReport:        defaultConfig.AutoReport,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("telemetry", c))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.notifyStatusChange))
}

// Run implements Runnable. It polls telemetry and posts it to the Loop.
func (c *Controller) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	interval := c.TelemetryInterval
	if interval <= 0 {
		interval = DefaultTelemetryInterval
	}
	autoReport := c.AutoReport
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := c.Robot.Stop(); err != nil {
				glog.V(1).Infof("stop on exit: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
		if autoReport {
			if err := c.Robot.SetAutoReport(true); err != nil {
				glog.V(1).Infof("enable auto report: %v", err)
			} else {
				autoReport = false
			}
		}
		msg := &statusMsg{}
		pollCtx, cancel := context.WithTimeout(ctx, interval/2)
		motion, err := c.Robot.Motion(pollCtx)
		cancel()
		if err == nil {
			msg.motion = &motion
		} else if !errors.Is(err, ErrNoTelemetry) {
			glog.Warningf("telemetry: %v", err)
		}
		engine := c.Robot.Engine()
		msg.link, msg.metrics = engine.State().String(), engine.Metrics()
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(mc fx.MessageContext) {
		switch msg := mc.Message().(type) {
		case *statusMsg:
			mc.Take()
			c.updateStatus(msg)
		case *l1.CommandMsg:
			if c.execute(cc.Context(), msg.Command) {
				mc.Take()
			}
		}
	})
	return nil
}

func (c *Controller) execute(ctx context.Context, cmd l1.Command) bool {
	r := c.Robot
	switch m := cmd.Msg().(type) {
	case *msgs.Drive:
		reply(cmd, r.Drive(int(m.Linear), int(m.Angular)))
	case *msgs.Beep:
		reply(cmd, r.SetBeep(int(m.DurationMs)))
	case *msgs.Light:
		reply(cmd, r.SetLight(int(m.Level)))
	case *msgs.LEDStrip:
		if m.R > 255 || m.G > 255 || m.B > 255 {
			reply(cmd, &RangeError{Field: "color", Value: int(max3(m.R, m.G, m.B)), Min: 0, Max: 255})
			break
		}
		reply(cmd, r.SetLEDStrip(int(m.ID), uint8(m.R), uint8(m.G), uint8(m.B)))
	case *msgs.StripEffect:
		reply(cmd, r.SetStripEffect(int(m.Effect), int(m.Speed), int(m.Param)))
	case *msgs.CameraAngle:
		reply(cmd, r.SetCameraAngle(int(m.Channel), int(m.Angle)))
	case *msgs.ArmJoints:
		if len(m.Positions) != 3 {
			reply(cmd, &RangeError{Field: "arm joints", Value: len(m.Positions), Min: 3, Max: 3})
			break
		}
		reply(cmd, r.SetArmJoints([3]int{int(m.Positions[0]), int(m.Positions[1]), int(m.Positions[2])}))
	case *msgs.ArmServo:
		reply(cmd, r.SetArmServo(int(m.ID), int(m.Position), int(m.TimeMs)))
	case *msgs.ArmTorque:
		reply(cmd, r.SetArmTorque(m.Enable))
	case *msgs.GyroAssist:
		reply(cmd, r.SetGyroAssist(m.Enable, m.Save))
	case *msgs.StatusQuery:
		status := proto.Clone(&c.status).(*msgs.Status)
		done(cmd, &msgs.StatusReply{Status: status})
	case *msgs.VersionQuery:
		go c.query(ctx, cmd, func(ctx context.Context) (fx.Message, error) {
			v, err := r.FirmwareVersion(ctx)
			return &msgs.Version{Major: uint32(v.Major), Minor: uint32(v.Minor)}, err
		})
	case *msgs.YawQuery:
		go c.query(ctx, cmd, func(ctx context.Context) (fx.Message, error) {
			yaw, err := r.Yaw(ctx)
			return &msgs.Yaw{Radians: float32(yaw)}, err
		})
	default:
		return false
	}
	return true
}

// query runs outside of the Loop as it waits for the board.
func (c *Controller) query(ctx context.Context, cmd l1.Command, fn func(context.Context) (fx.Message, error)) {
	timeout := c.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := fn(ctx)
	if err != nil {
		reply(cmd, err)
		return
	}
	done(cmd, res)
}

func (c *Controller) updateStatus(msg *statusMsg) {
	status := msgs.Status{
		Linear:         c.status.Linear,
		Angular:        c.status.Angular,
		Accel:          c.status.Accel,
		Gyro:           c.status.Gyro,
		Battery:        c.status.Battery,
		Link:           msg.link,
		FramesReceived: msg.metrics.FramesReceived,
		FramesDropped:  msg.metrics.FramesDropped,
		Reconnects:     msg.metrics.Reconnects,
	}
	if m := msg.motion; m != nil {
		status.Linear, status.Angular = int32(m.Linear), int32(m.Angular)
		status.Accel = []int32{int32(m.Accel[0]), int32(m.Accel[1]), int32(m.Accel[2])}
		status.Gyro = []int32{int32(m.Gyro[0]), int32(m.Gyro[1]), int32(m.Gyro[2])}
		status.Battery = float32(m.Battery)
	}
	if !proto.Equal(&status, &c.status) {
		c.status = status
		c.statusChanged = true
	}
}

func (c *Controller) notifyStatusChange(cc fx.ControlContext) error {
	if !c.statusChanged || c.Registrar == nil {
		return nil
	}
	c.statusChanged = false
	status := c.status
	return c.Registrar.SendEvent(cc.Context(), &status)
}

func reply(cmd l1.Command, err error) {
	if err != nil {
		glog.V(1).Infof("command %T failed: %v", cmd.Msg(), err)
		done(cmd, l1msgs.NewCommandErr(err))
		return
	}
	done(cmd, l1msgs.NewCommandOK())
}

func done(cmd l1.Command, msg fx.Message) {
	if err := cmd.Done(msg); err != nil {
		glog.Warningf("reply %T: %v", cmd.Msg(), err)
	}
}

func max3(a, b, c uint32) uint32 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

type statusMsg struct {
	motion  *MotionStatus
	link    string
	metrics comm.MetricsSnapshot
}

func (m *statusMsg) NewMessage() fx.Message { return &statusMsg{} }
