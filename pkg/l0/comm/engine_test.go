package comm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type engineTestEnv struct {
	t         *testing.T
	transport *testTransport
	engine    *Engine
	cancel    func()
	errCh     chan error
}

func newEngineTestEnv(t *testing.T, conf Config) *engineTestEnv {
	env := &engineTestEnv{
		t:         t,
		transport: newTestTransport(),
		errCh:     make(chan error, 1),
	}
	env.engine = NewEngine(env.transport, conf)
	return env
}

func (e *engineTestEnv) start() *engineTestEnv {
	require.NoError(e.t, e.engine.Open())
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go func() {
		e.errCh <- e.engine.Run(ctx)
	}()
	return e
}

func (e *engineTestEnv) stop() error {
	e.cancel()
	select {
	case err := <-e.errCh:
		return err
	case <-time.After(time.Second):
		e.t.Fatal("engine stop timeout")
	}
	return nil
}

func (e *engineTestEnv) send(code CommandCode, payload ...byte) error {
	f, err := e.engine.BuildCommand(code)
	require.NoError(e.t, err)
	defer f.Release()
	require.NoError(e.t, f.SetPayload(payload))
	return e.engine.Send(f)
}

func (e *engineTestEnv) expectWrite() []byte {
	select {
	case data := <-e.transport.writeCh:
		return data
	case <-time.After(time.Second):
		e.t.Fatal("expect write timeout")
	}
	return nil
}

func (e *engineTestEnv) waitTake(code ResponseCode) *Frame {
	var f *Frame
	require.Eventuallyf(e.t, func() bool {
		var err error
		f, err = e.engine.Take(code)
		return err == nil
	}, time.Second, time.Millisecond, "take %s", code)
	return f
}

func TestEngineEndToEnd(t *testing.T) {
	env := newEngineTestEnv(t, DefaultConfig()).start()
	defer env.stop()

	_, err := env.engine.Take(RespGyroAssistEnabled)
	require.ErrorIs(t, err, ErrNoSlot)

	require.NoError(t, env.send(CmdSetBeep, 10, 0))
	data := env.expectWrite()
	require.Len(t, data, 7)
	require.Equal(t, Checksum(data), data[len(data)-1])

	env.transport.inject(gyroFrame)
	f := env.waitTake(RespGyroAssistEnabled)
	payload, err := f.Payload()
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, payload)
	f.Release()

	_, err = env.engine.Take(RespGyroAssistEnabled)
	require.ErrorIs(t, err, ErrEmpty)

	m := env.engine.Metrics()
	require.EqualValues(t, 1, m.FramesSent)
	require.EqualValues(t, 7, m.BytesSent)
	require.EqualValues(t, 1, m.FramesReceived)
}

func TestEngineSendValidation(t *testing.T) {
	env := newEngineTestEnv(t, DefaultConfig())

	require.ErrorIs(t, env.send(CmdSetLight, 50), ErrNotReady)
	env.start()
	defer env.stop()

	_, err := env.engine.BuildCommand(CommandCode(0x0a))
	require.ErrorIs(t, err, ErrInvalidCode)
	require.ErrorIs(t, err, ErrUnknownMessageType)
	_, err = env.engine.BuildResponse(ResponseCode(0x02))
	require.ErrorIs(t, err, ErrInvalidCode)

	resp, err := env.engine.BuildResponse(RespGyroAssistEnabled)
	require.NoError(t, err)
	require.NoError(t, resp.SetPayload([]byte{1}))
	require.ErrorIs(t, env.engine.Send(resp), ErrWrongRole)
	resp.Release()

	unset, err := env.engine.BuildCommand(CmdSetLight)
	require.NoError(t, err)
	require.ErrorIs(t, env.engine.Send(unset), ErrNotSet)
	unset.Release()

	require.ErrorIs(t, env.send(CmdClearFlash, 0x5f), ErrRefused)

	env.transport.shortWrite = true
	require.ErrorIs(t, env.send(CmdSetLight, 50), ErrShortWrite)
	env.expectWrite()

	m := env.engine.Metrics()
	require.Zero(t, m.FramesSent)
	require.EqualValues(t, 5, m.SendErrors)
}

func TestEngineClearFlashAllowed(t *testing.T) {
	conf := DefaultConfig()
	conf.AllowClearFlash = true
	env := newEngineTestEnv(t, conf).start()
	defer env.stop()
	require.NoError(t, env.send(CmdClearFlash, 0x5f))
	require.Equal(t, []byte{0xff, 0xfe, 0x04, 0xa0, 0x5f, 0x03}, env.expectWrite())
}

func TestEngineResync(t *testing.T) {
	env := newEngineTestEnv(t, DefaultConfig()).start()
	defer env.stop()

	env.transport.inject(
		[]byte{0x00, 0xff, 0x00, 0xff, 0xfd},
		[]byte{0x05, 0x51, 0x01},
		[]byte{0x00, 0x57},
		[]byte{0xff, 0xfd, 0x04, 0x0c, 0x01, 0x12},
		gyroFrame,
	)
	f := env.waitTake(RespFirmwareVersion)
	payload, err := f.Payload()
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x00}, payload)
	f.Release()

	env.waitTake(RespGyroAssistEnabled).Release()
	_, err = env.engine.Take(RespGyroAssistEnabled)
	require.ErrorIs(t, err, ErrEmpty)

	m := env.engine.Metrics()
	require.EqualValues(t, 8, m.BytesDiscarded)
	require.EqualValues(t, 1, m.FramesDropped)
	require.EqualValues(t, 2, m.FramesReceived)
}

func TestEngineResyncInsideBadFrame(t *testing.T) {
	env := newEngineTestEnv(t, DefaultConfig()).start()
	defer env.stop()

	env.transport.inject(concat([]byte{0xff, 0xfd, 0x05, 0x51}, gyroFrame, firmwareFrame))
	env.waitTake(RespGyroAssistEnabled).Release()
	env.waitTake(RespFirmwareVersion).Release()

	m := env.engine.Metrics()
	require.EqualValues(t, 1, m.FramesDropped)
	require.EqualValues(t, 2, m.FramesReceived)
}

func yawFrameBytes(n byte) []byte {
	return []byte{0xff, 0xfd, 0x05, 0x52, n, 0x00, 0x57 + n}
}

func TestEngineEvictOnArenaFull(t *testing.T) {
	testCases := []struct {
		name    string
		in      [][]byte
		pending map[ResponseCode]int
	}{
		{
			name:    "same code",
			in:      [][]byte{yawFrameBytes(0), yawFrameBytes(1), firmwareFrame, firmwareFrame, yawFrameBytes(0xaa)},
			pending: map[ResponseCode]int{RespYawAngle: 2, RespFirmwareVersion: 2},
		},
		{
			name:    "fullest code",
			in:      [][]byte{yawFrameBytes(0), yawFrameBytes(1), yawFrameBytes(0xaa), firmwareFrame, gyroFrame},
			pending: map[ResponseCode]int{RespYawAngle: 2, RespFirmwareVersion: 1, RespGyroAssistEnabled: 1},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := DefaultConfig()
			conf.BlockTableSize = 6
			env := newEngineTestEnv(t, conf).start()
			defer env.stop()

			env.transport.inject(tc.in...)
			require.Eventuallyf(t, func() bool {
				return env.engine.Metrics().FramesReceived == uint64(len(tc.in))
			}, time.Second, time.Millisecond, "%s received", tc.name)
			m := env.engine.Metrics()
			require.Zerof(t, m.FramesDropped, "%s dropped", tc.name)
			require.EqualValuesf(t, 1, m.FramesEvicted, "%s evicted", tc.name)
			for code, n := range tc.pending {
				require.Equalf(t, n, env.engine.Pending(code), "%s pending %s", tc.name, code)
			}

			f, err := env.engine.TakeLatest(RespYawAngle)
			require.NoError(t, err)
			payload, err := f.Payload()
			require.NoError(t, err)
			require.Equal(t, []byte{0xaa, 0x00}, payload)
			f.Release()
		})
	}
}

func TestEngineReconnect(t *testing.T) {
	conf := DefaultConfig()
	conf.RetryDelay = 20 * time.Millisecond
	env := newEngineTestEnv(t, conf)
	env.transport.openErr = func(attempt int) error {
		if attempt == 2 || attempt == 3 {
			return errOpen
		}
		return nil
	}
	env.start()
	defer env.stop()

	env.transport.inject(gyroFrame[:3], nil)
	require.Eventually(t, func() bool {
		return env.engine.State() == StateReconnecting
	}, time.Second, time.Millisecond)
	require.ErrorIs(t, env.send(CmdSetLight, 10), ErrNotReady)

	require.Eventually(t, func() bool {
		return env.engine.State() == StateOpen
	}, time.Second, time.Millisecond)
	require.Equal(t, 4, env.transport.openCount())

	env.transport.inject(gyroFrame)
	env.waitTake(RespGyroAssistEnabled).Release()
	require.NoError(t, env.send(CmdSetLight, 10))
	env.expectWrite()

	m := env.engine.Metrics()
	require.EqualValues(t, 1, m.Reconnects)
	require.EqualValues(t, 3, m.BytesDiscarded)
}

func TestEngineRetryCap(t *testing.T) {
	conf := DefaultConfig()
	conf.RetryDelay, conf.MaxRetries = time.Millisecond, 2
	env := newEngineTestEnv(t, conf)
	env.transport.openErr = failOpensAfter(1)
	env.start()

	env.transport.inject(nil)
	select {
	case err := <-env.errCh:
		var te *TransportError
		require.ErrorAs(t, err, &te)
		require.Equal(t, "reopen", te.Op)
	case <-time.After(time.Second):
		t.Fatal("engine should stop")
	}
	env.cancel()
}

func TestEngineShutdownReleases(t *testing.T) {
	env := newEngineTestEnv(t, DefaultConfig()).start()
	env.transport.inject(gyroFrame, firmwareFrame, gyroFrame)
	require.Eventually(t, func() bool {
		return env.engine.Metrics().FramesReceived == 3
	}, time.Second, time.Millisecond)
	used, blocks := env.engine.arena.Used()
	require.Equal(t, 19, used)
	require.Equal(t, 3, blocks)

	require.ErrorIs(t, env.stop(), context.Canceled)
	require.Equal(t, StateClosed, env.engine.State())
	used, blocks = env.engine.arena.Used()
	require.Zero(t, used)
	require.Zero(t, blocks)
}

func TestEngineSlotOverwrite(t *testing.T) {
	conf := DefaultConfig()
	conf.SlotCapacity = 3
	env := newEngineTestEnv(t, conf).start()
	defer env.stop()

	for n := byte(0); n < 5; n++ {
		env.transport.inject([]byte{0xff, 0xfd, 0x05, 0x52, n, 0x00, 0x57 + n})
	}
	require.Eventually(t, func() bool {
		return env.engine.Metrics().FramesReceived == 5
	}, time.Second, time.Millisecond)
	require.EqualValues(t, 2, env.engine.Metrics().FramesEvicted)

	f, err := env.engine.TakeLatest(RespYawAngle)
	require.NoError(t, err)
	payload, err := f.Payload()
	require.NoError(t, err)
	require.Equal(t, []byte{4, 0}, payload)
	f.Release()
	require.Zero(t, env.engine.Pending(RespYawAngle))
}
