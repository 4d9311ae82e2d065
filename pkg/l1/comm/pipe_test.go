package comm

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l1"
	"github.com/robotalks/transbot.go/pkg/l1/comm/stream"
	"github.com/robotalks/transbot.go/pkg/l1/msgs"
)

type testPing struct {
	Value int32 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *testPing) NewMessage() fx.Message      { return &testPing{} }
func (m *testPing) TypeID() uint32              { return testPingTypeID }
func (m *testPing) Serializable() proto.Message { return m }
func (m *testPing) ProtoMessage()               {}
func (m *testPing) Reset()                      { *m = testPing{} }
func (m *testPing) String() string              { return proto.CompactTextString(m) }

type testPong struct {
	Value int32 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *testPong) NewMessage() fx.Message      { return &testPong{} }
func (m *testPong) TypeID() uint32              { return testPongTypeID }
func (m *testPong) Serializable() proto.Message { return m }
func (m *testPong) ProtoMessage()               {}
func (m *testPong) Reset()                      { *m = testPong{} }
func (m *testPong) String() string              { return proto.CompactTextString(m) }

type testEvent struct {
	Value int32 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *testEvent) NewMessage() fx.Message      { return &testEvent{} }
func (m *testEvent) TypeID() uint32              { return testEventTypeID }
func (m *testEvent) Serializable() proto.Message { return m }
func (m *testEvent) ProtoMessage()               {}
func (m *testEvent) Reset()                      { *m = testEvent{} }
func (m *testEvent) String() string              { return proto.CompactTextString(m) }

const (
	testPingTypeID  = msgs.GroupCustom | 0x0ff0
	testPongTypeID  = msgs.GroupCustom | msgs.TypeIDMaskReply | 0x0ff0
	testEventTypeID = msgs.GroupCustom | msgs.TypeIDKindEvent | 0x0ff0
)

func init() {
	msgs.MessageTypes[testPingTypeID] = (*testPing)(nil)
	msgs.MessageTypes[testPongTypeID] = (*testPong)(nil)
	msgs.MessageTypes[testEventTypeID] = (*testEvent)(nil)
}

func runLoop(t *testing.T, ctx context.Context, loop *fx.Loop) {
	loop.Interval = 10 * time.Millisecond
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() { <-done })
}

func TestRegistrarControllerConn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serverSide, clientSide := net.Pipe()

	var reg Registrar
	reg.Init(stream.New(serverSide))
	server := fx.NewLoop().Add(&reg, &UnsupportedCommands{})
	server.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(func(mc fx.MessageContext) {
			if cmd, ok := mc.Message().(*l1.CommandMsg); ok {
				if ping, ok := cmd.Command.Msg().(*testPing); ok {
					mc.Take()
					cmd.Command.Done(&testPong{Value: ping.Value + 1})
				}
			}
		})
		return nil
	}))
	runLoop(t, ctx, server)

	var conn ControllerConn
	conn.Init(stream.New(clientSide))
	events := make(chan int32, 1)
	client := fx.NewLoop().Add(&conn)
	client.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(func(mc fx.MessageContext) {
			if ev, ok := mc.Message().(*testEvent); ok {
				mc.Take()
				events <- ev.Value
			}
		})
		return nil
	}))
	runLoop(t, ctx, client)

	reply, err := l1.Do(ctx, &conn, &testPing{Value: 7})
	require.NoError(t, err)
	require.Equal(t, int32(8), reply.(*testPong).Value)

	_, err = l1.Do(ctx, &conn, msgs.NewCommandOK())
	require.EqualError(t, err, msgs.ErrUnsupportedCommand.Error())

	require.NoError(t, reg.SendEvent(ctx, &testEvent{Value: 3}))
	select {
	case v := <-events:
		require.Equal(t, int32(3), v)
	case <-time.After(time.Second):
		t.Fatal("event not received")
	}
	require.Zero(t, conn.Pending())
}

func TestPipeSendKind(t *testing.T) {
	pipe := NewPipe(stream.New(&bytes.Buffer{}), nil)
	require.ErrorIs(t, pipe.SendEventMsg(&testPing{}), ErrNotEvent)
	require.ErrorIs(t, pipe.SendCommandMsg(&testEvent{}, 1), ErrNotCommand)
}

func TestCommandRepliedOnce(t *testing.T) {
	var out bytes.Buffer
	cmd := &command{seq: 5, msg: &testPing{}, pipe: NewPipe(stream.New(&out), nil)}
	require.NoError(t, cmd.Done(&testPong{Value: 1}))
	written := out.Len()
	require.NotZero(t, written)
	require.ErrorIs(t, cmd.Done(&testPong{Value: 2}), ErrAlreadyReplied)
	require.Equal(t, written, out.Len())
}

type blackhole struct {
	closed chan struct{}
}

func (b *blackhole) ReadPacket() ([]byte, error) {
	<-b.closed
	return nil, io.EOF
}

func (b *blackhole) WritePacket([]byte) error { return nil }

func (b *blackhole) Close() error {
	select {
	case <-b.closed:
	default:
		close(b.closed)
	}
	return nil
}

func TestControllerConnExpiration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var conn ControllerConn
	conn.Init(&blackhole{closed: make(chan struct{})})
	conn.Expiration = 20 * time.Millisecond
	runLoop(t, ctx, fx.NewLoop().Add(&conn))

	_, err := l1.Do(ctx, &conn, &testPing{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, conn.Pending())
}
