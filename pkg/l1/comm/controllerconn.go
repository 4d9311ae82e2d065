package comm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l1"
	"github.com/robotalks/transbot.go/pkg/l1/msgs"
)

// DefaultCommandExpiration is how long a command waits for its reply.
const DefaultCommandExpiration = time.Second

// ControllerConn implements l1.ControllerConn over a Pipe. Each command
// is tagged with a non-zero sequence and fails with
// context.DeadlineExceeded if the reply does not arrive within Expiration.
type ControllerConn struct {
	Expiration time.Duration

	pipe     Pipe
	seq      atomic.Uint32
	inflight *xsync.MapOf[uint32, *commandFuture]
}

// Init binds the connection to a transport.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.inflight = xsync.NewMapOf[uint32, *commandFuture]()
}

func (c *ControllerConn) nextSeq() uint32 {
	for {
		if seq := c.seq.Add(1); seq != 0 {
			return seq
		}
	}
}

// DoCommand implements ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	f := &commandFuture{
		seq:      c.nextSeq(),
		deadline: time.Now().Add(c.Expiration),
		result:   make(chan l1.Result, 1),
	}
	// Registered first so a fast reply can't overtake it.
	c.inflight.Store(f.seq, f)
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		c.resolve(f.seq, l1.Result{Err: err})
	}
	return f
}

// Pending returns the number of commands waiting for replies.
func (c *ControllerConn) Pending() int {
	return c.inflight.Size()
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.expire))
}

func (c *ControllerConn) resolve(seq uint32, res l1.Result) bool {
	f, ok := c.inflight.LoadAndDelete(seq)
	if ok {
		f.result <- res
		close(f.result)
	}
	return ok
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	res := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		res.Err = cmdErr
	}
	c.resolve(typed.Sequence, res)
	return nil
}

func (c *ControllerConn) expire(cc fx.ControlContext) error {
	now := cc.Time()
	var expired []uint32
	c.inflight.Range(func(seq uint32, f *commandFuture) bool {
		if !f.deadline.After(now) {
			expired = append(expired, seq)
		}
		return true
	})
	for _, seq := range expired {
		c.resolve(seq, l1.Result{Err: context.DeadlineExceeded})
	}
	return nil
}

type commandFuture struct {
	seq      uint32
	deadline time.Time
	result   chan l1.Result
}

func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}
