// Package joystick drives a Transbot controller with a joystick.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/joystick/device"
	"github.com/robotalks/transbot.go/pkg/l1"
	l1msgs "github.com/robotalks/transbot.go/pkg/l1/msgs"
	"github.com/robotalks/transbot.go/pkg/transbot/msgs"
)

// AxisMax is the largest absolute axis value.
const AxisMax = 32767

// Mapping maps joystick axes and buttons to commands.
type Mapping struct {
	LinearAxis  int `toml:"linear-axis"`
	AngularAxis int `toml:"angular-axis"`
	// MaxLinear in cm/s at full stick.
	MaxLinear int `toml:"max-linear"`
	// MaxAngular in 0.01 rad/s at full stick.
	MaxAngular int `toml:"max-angular"`
	// Deadzone is the axis range around center treated as 0.
	Deadzone    int `toml:"deadzone"`
	BeepButton  int `toml:"beep-button"`
	LightButton int `toml:"light-button"`
}

// DefaultMapping fits the left stick of common gamepads.
var DefaultMapping = Mapping{
	LinearAxis:  1,
	AngularAxis: 0,
	MaxLinear:   45,
	MaxAngular:  200,
	Deadzone:    3000,
	BeepButton:  0,
	LightButton: 1,
}

// Drive computes the chassis velocity from axis positions. Pushing up
// (negative) drives forward, pushing left (negative) turns left.
func (m Mapping) Drive(axes map[int]int) *msgs.Drive {
	return &msgs.Drive{
		Linear:  int32(m.scale(-axes[m.LinearAxis], m.MaxLinear)),
		Angular: int32(m.scale(-axes[m.AngularAxis], m.MaxAngular)),
	}
}

func (m Mapping) scale(val, max int) int {
	if val > -m.Deadzone && val < m.Deadzone {
		return 0
	}
	if val > AxisMax {
		val = AxisMax
	} else if val < -AxisMax {
		val = -AxisMax
	}
	return val * max / AxisMax
}

// Teleop is an L2 controller sending joystick input to an L1 controller.
type Teleop struct {
	Conn        l1.ControllerConn
	DeviceIndex int
	Mapping     Mapping
	Verbose     bool

	axes  map[int]int
	drive msgs.Drive
	light bool
}

// NewTeleop creates a Teleop.
func NewTeleop(conn l1.ControllerConn) *Teleop {
	return &Teleop{
		Conn:        conn,
		DeviceIndex: defaultConfig.DeviceIndex,
		Mapping:     defaultConfig.Mapping,
		Verbose:     defaultConfig.Verbose,
		axes:        make(map[int]int),
	}
}

// AddToLoop implements LoopAdder.
func (t *Teleop) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("joystick", t))
	loop.AddController(fx.PrLvControl, t)
}

// Run implements Runnable. It opens the joystick and reopens it when
// it is unplugged.
func (t *Teleop) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	retry := time.After(0)
	var dev device.Device
	var eventCh chan device.Event
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
			retry = nil
			var err error
			if dev, err = t.open(); err != nil || dev == nil {
				if err != nil {
					glog.Warningf("open joystick: %v", err)
				}
				retry = time.After(time.Second)
				continue
			}
			glog.Infof("joystick %d %q opened, %d axes, %d buttons",
				dev.Index(), dev.Name(), dev.AxisCount(), dev.ButtonCount())
			eventCh = make(chan device.Event, 16)
			go t.poll(dev, eventCh)
		case ev, ok := <-eventCh:
			if !ok {
				dev.Close()
				dev, eventCh = nil, nil
				retry = time.After(time.Second)
				loopCtl.PostMessage(&eventMsg{lost: true})
			} else {
				loopCtl.PostMessage(&eventMsg{event: ev})
			}
			loopCtl.TriggerNext()
		}
	}
}

func (t *Teleop) open() (device.Device, error) {
	if t.DeviceIndex >= 0 {
		return device.Open(t.DeviceIndex)
	}
	return device.Detect(0)
}

func (t *Teleop) poll(dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Warningf("joystick read: %v", err)
			return
		}
		if t.Verbose {
			glog.Infof("joystick event %+v", ev)
		}
		ch <- ev
	}
}

// Control implements Controller.
func (t *Teleop) Control(cc fx.ControlContext) error {
	if t.axes == nil {
		t.axes = make(map[int]int)
	}
	cc.Messages().ProcessMessages(func(mc fx.MessageContext) {
		msg, ok := mc.Message().(*eventMsg)
		if !ok {
			return
		}
		mc.Take()
		switch {
		case msg.lost:
			t.axes = make(map[int]int)
		case msg.event.Axis:
			t.axes[msg.event.Index] = msg.event.Value
		case msg.event.Pressed() && !msg.event.Init:
			t.press(msg.event.Index)
		}
	})
	if drive := t.Mapping.Drive(t.axes); *drive != t.drive {
		t.drive = *drive
		t.send(drive)
	}
	return nil
}

func (t *Teleop) press(button int) {
	switch button {
	case t.Mapping.BeepButton:
		t.send(&msgs.Beep{DurationMs: 100})
	case t.Mapping.LightButton:
		t.light = !t.light
		level := uint32(0)
		if t.light {
			level = 100
		}
		t.send(&msgs.Light{Level: level})
	}
}

// send does not wait for the reply in the Loop.
func (t *Teleop) send(msg fx.Message) {
	future := t.Conn.DoCommand(msg)
	go func() {
		res := <-future.ResultChan()
		if res.Err == nil {
			if errMsg, ok := res.Msg.(*l1msgs.CommandErr); ok {
				res.Err = errMsg
			}
		}
		if res.Err != nil {
			glog.Warningf("%T: %v", msg, res.Err)
		}
	}()
}

type eventMsg struct {
	event device.Event
	lost  bool
}

func (m *eventMsg) NewMessage() fx.Message { return &eventMsg{} }
