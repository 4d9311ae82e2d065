package joystick

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/joystick/device"
	"github.com/robotalks/transbot.go/pkg/l1"
	l1msgs "github.com/robotalks/transbot.go/pkg/l1/msgs"
	"github.com/robotalks/transbot.go/pkg/transbot/msgs"
)

type result chan l1.Result

func (r result) ResultChan() <-chan l1.Result { return r }

type recordConn struct {
	lock sync.Mutex
	sent []fx.Message
}

func (c *recordConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.lock.Lock()
	c.sent = append(c.sent, msg)
	c.lock.Unlock()
	res := make(result, 1)
	res <- l1.Result{Msg: l1msgs.NewCommandOK()}
	return res
}

func (c *recordConn) messages() []fx.Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]fx.Message(nil), c.sent...)
}

func TestMappingDrive(t *testing.T) {
	m := DefaultMapping
	cases := []struct {
		name   string
		axes   map[int]int
		expect msgs.Drive
	}{
		{"center", map[int]int{}, msgs.Drive{}},
		{"deadzone", map[int]int{0: 2999, 1: -2999}, msgs.Drive{}},
		{"forward", map[int]int{1: -AxisMax}, msgs.Drive{Linear: 45}},
		{"backward half", map[int]int{1: AxisMax / 2}, msgs.Drive{Linear: -22}},
		{"left", map[int]int{0: -AxisMax}, msgs.Drive{Angular: 200}},
		{"clamp", map[int]int{0: 32768, 1: -32768}, msgs.Drive{Linear: 45, Angular: -200}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, &c.expect, m.Drive(c.axes))
		})
	}
}

func TestTeleopControl(t *testing.T) {
	conn := &recordConn{}
	teleop := NewConfig().NewTeleop(conn)
	loop := fx.NewLoop()
	loop.Interval = 5 * time.Millisecond
	loop.AddController(fx.PrLvControl, teleop)

	loop.PostMessage(&eventMsg{event: device.Event{Axis: true, Index: 1, Value: -AxisMax}})
	loop.PostMessage(&eventMsg{event: device.Event{Index: 0, Value: 1, Init: true}})
	loop.PostMessage(&eventMsg{event: device.Event{Index: 1, Value: 1}})
	loop.PostMessage(&eventMsg{event: device.Event{Index: 1, Value: 0}})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	require.Eventually(t, func() bool {
		return len(conn.messages()) == 2
	}, time.Second, 5*time.Millisecond)

	loop.PostMessage(&eventMsg{lost: true})
	loop.TriggerNext()
	require.Eventually(t, func() bool {
		return len(conn.messages()) == 3
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	require.Equal(t, []fx.Message{
		&msgs.Light{Level: 100},
		&msgs.Drive{Linear: 45},
		&msgs.Drive{},
	}, conn.messages())
}
