package comm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l0/arena"
)

// Config defines the settings of an Engine.
type Config struct {
	// ArenaSize is the number of bytes for frame storage.
	ArenaSize int
	// BlockTableSize limits the number of live frames (plus 2 sentinels).
	BlockTableSize int
	// SlotCapacity is the number of pending frames kept per response code.
	SlotCapacity int
	// ReadBufferSize is the max number of bytes per transport read.
	ReadBufferSize int
	// RetryDelay is the delay between reopen attempts after link loss.
	RetryDelay time.Duration
	// MaxRetries caps reopen attempts, 0 for unlimited.
	MaxRetries int
	// AllowClearFlash enables sending CLEAR_FLASH.
	AllowClearFlash bool
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		ArenaSize:      1024,
		BlockTableSize: arena.DefaultTableSize,
		SlotCapacity:   DefaultSlotCapacity,
		ReadBufferSize: MaxFrameLen,
		RetryDelay:     DefaultRetryDelay,
	}
}

// Engine sends commands to the board and collects responses.
type Engine struct {
	config     Config
	arena      *arena.Arena
	session    *Session
	correlator *Correlator
	sync       Synchronizer
	metrics    Metrics
}

// NewEngine creates an Engine over a Transport.
func NewEngine(t Transport, conf Config) *Engine {
	def := DefaultConfig()
	if conf.ArenaSize <= 0 {
		conf.ArenaSize = def.ArenaSize
	}
	if conf.BlockTableSize <= 0 {
		conf.BlockTableSize = def.BlockTableSize
	}
	if conf.ReadBufferSize <= 0 {
		conf.ReadBufferSize = def.ReadBufferSize
	}
	if conf.RetryDelay <= 0 {
		conf.RetryDelay = def.RetryDelay
	}
	e := &Engine{
		config:     conf,
		arena:      arena.New(conf.ArenaSize, conf.BlockTableSize),
		session:    NewSession(t),
		correlator: NewCorrelator(conf.SlotCapacity),
	}
	e.session.RetryDelay, e.session.MaxRetries = conf.RetryDelay, conf.MaxRetries
	return e
}

// Open opens the link. Failure is fatal to the Engine.
func (e *Engine) Open() error {
	if err := e.session.Open(); err != nil {
		return err
	}
	glog.Info("link opened")
	return nil
}

// Close closes the link and stops Run.
func (e *Engine) Close() error {
	return e.session.Close()
}

// State gets the link state.
func (e *Engine) State() SessionState {
	return e.session.State()
}

// Metrics returns current counters.
func (e *Engine) Metrics() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// BuildCommand creates an empty outbound frame.
func (e *Engine) BuildCommand(code CommandCode) (*Frame, error) {
	d, err := LookupCommand(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	return NewFrame(e.arena, d)
}

// BuildResponse creates an empty inbound frame.
func (e *Engine) BuildResponse(code ResponseCode) (*Frame, error) {
	d, err := LookupResponse(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCode, err)
	}
	return NewFrame(e.arena, d)
}

// Send validates and writes an outbound frame. The caller keeps its
// reference to the frame.
func (e *Engine) Send(f *Frame) error {
	err := e.send(f)
	if err != nil {
		e.metrics.SendErrors.Add(1)
	}
	return err
}

func (e *Engine) send(f *Frame) error {
	d := f.Descriptor()
	code, ok := d.Command()
	if !ok {
		return fmt.Errorf("%w: %s is %s", ErrWrongRole, d, d.Role)
	}
	known, err := LookupCommand(code)
	if err != nil {
		return err
	}
	if known.Length != d.Length {
		return fmt.Errorf("%w: %s length %d, expect %d", ErrLengthMismatch, d, d.Length, known.Length)
	}
	if code == CmdClearFlash && !e.config.AllowClearFlash {
		glog.Warningf("%s refused: flash clearing disabled", d)
		return fmt.Errorf("%w: %s", ErrRefused, d)
	}
	if !f.IsSet() {
		return fmt.Errorf("%w: %s", ErrNotSet, d)
	}
	n, err := f.WriteTo(e.session)
	if err != nil {
		return err
	}
	e.metrics.FramesSent.Add(1)
	e.metrics.BytesSent.Add(uint64(n))
	glog.V(2).Infof("SND %s", d)
	return nil
}

// Take pops the oldest pending response of the code. The caller must
// Release the frame.
func (e *Engine) Take(code ResponseCode) (*Frame, error) {
	return e.correlator.Take(code)
}

// TakeLatest pops all pending responses of the code and returns the
// newest. The caller must Release the frame.
func (e *Engine) TakeLatest(code ResponseCode) (*Frame, error) {
	return e.correlator.TakeLatest(code)
}

// Pending returns the number of pending responses of the code.
func (e *Engine) Pending(code ResponseCode) int {
	return e.correlator.Pending(code)
}

// Run implements Runnable. It receives responses until the context is
// done or the link is closed. Pending responses are released when it
// returns.
func (e *Engine) Run(ctx context.Context) error {
	defer e.shutdown()
	return fx.RunWithContextCloser(ctx, e.session, func() error {
		return e.receive(ctx)
	})
}

func (e *Engine) receive(ctx context.Context) error {
	buf := make([]byte, e.config.ReadBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := e.session.Read(buf)
		for _, b := range buf[:n] {
			e.feed(b)
		}
		if err == nil || IsTimeout(err) {
			continue
		}
		if e.session.State() == StateClosed {
			return nil
		}
		glog.Warningf("link lost: %v", err)
		if dropped := e.sync.Reset(); dropped > 0 {
			e.metrics.BytesDiscarded.Add(uint64(dropped))
		}
		if err = e.session.Reconnect(ctx); err != nil {
			if errors.Is(err, ErrNotReady) {
				return nil
			}
			return err
		}
		e.metrics.Reconnects.Add(1)
	}
}

func (e *Engine) feed(b byte) {
	r := e.sync.Parse(b)
	if r.Discarded > 0 {
		e.metrics.BytesDiscarded.Add(uint64(r.Discarded))
	}
	if r.Frame == nil {
		return
	}
	f, err := e.newResponse(r.Desc)
	if err == nil {
		if err = f.SetRaw(r.Frame); err != nil {
			f.Release()
		}
	}
	if err != nil {
		e.metrics.FramesDropped.Add(1)
		glog.Warningf("drop %s: %v", r.Desc, err)
		if errors.Is(err, ErrChecksum) {
			// the header may have been noise, a real frame can start
			// inside the bytes consumed as its body.
			var raw [MaxFrameLen]byte
			for _, b := range raw[:copy(raw[:], r.Frame[1:])] {
				e.feed(b)
			}
		}
		return
	}
	e.metrics.FramesReceived.Add(1)
	if evicted := e.correlator.Push(f); evicted > 0 {
		e.metrics.FramesEvicted.Add(uint64(evicted))
	}
	glog.V(2).Infof("RCV %s", r.Desc)
}

// newResponse allocates a frame for a received response. When the arena
// is exhausted by pending frames, the oldest pending frame of the same
// code, or else of the fullest code, is evicted to make room.
func (e *Engine) newResponse(d Descriptor) (*Frame, error) {
	f, err := NewFrame(e.arena, d)
	if !errors.Is(err, arena.ErrOutOfMemory) {
		return f, err
	}
	if !e.correlator.Evict(ResponseCode(d.Code)) && !e.correlator.EvictFullest() {
		return nil, err
	}
	e.metrics.FramesEvicted.Add(1)
	return NewFrame(e.arena, d)
}

func (e *Engine) shutdown() {
	e.sync.Reset()
	if n := e.correlator.Clear(); n > 0 {
		glog.V(2).Infof("released %d pending frame(s)", n)
	}
}
