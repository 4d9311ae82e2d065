package comm

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l1"
	"github.com/robotalks/transbot.go/pkg/l1/msgs"
)

// ErrAlreadyReplied is returned when a command is replied twice.
var ErrAlreadyReplied = errors.New("command already replied")

// Registrar exposes a controller over one Pipe. Received commands are
// posted to the Loop as l1.CommandMsg.
type Registrar struct {
	pipe Pipe
}

// Init binds the Registrar to a transport.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		PostTyped(ctx, &r.pipe, msg, typed)
		return nil
	})
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(_ context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

// PostTyped hands a received message to the Loop in ctx. A command is
// wrapped so its reply goes back through pipe with the same sequence.
func PostTyped(ctx context.Context, pipe *Pipe, msg fx.Message, typed *msgs.Typed) {
	if typed.IsCommand() {
		msg = &l1.CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: pipe}}
	}
	loopCtl := fx.LoopCtlFrom(ctx)
	loopCtl.PostMessage(msg)
	loopCtl.TriggerNext()
}

type command struct {
	seq     uint32
	msg     fx.Message
	pipe    *Pipe
	replied atomic.Bool
}

func (c *command) Msg() fx.Message { return c.msg }

func (c *command) Done(reply fx.Message) error {
	if c.replied.Swap(true) {
		return ErrAlreadyReplied
	}
	return c.pipe.SendCommandMsg(reply, c.seq)
}

// RegistrarMux fans events out to several Registrars.
type RegistrarMux struct {
	Registrars []l1.Registrar
}

// Add appends registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.Registrars = append(r.Registrars, regs...)
}

// SendEvent implements Registrar. All registrars are tried.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, reg := range r.Registrars {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder for the registrars that need the Loop.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// UnsupportedCommands rejects commands left untaken by every controller.
// It runs at PrLvIdle.
type UnsupportedCommands struct{}

// Control implements Controller.
func (UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(mc fx.MessageContext) {
		cmdMsg, ok := mc.Message().(*l1.CommandMsg)
		if !ok {
			return
		}
		mc.Take()
		glog.V(1).Infof("unsupported command %T", cmdMsg.Command.Msg())
		if err := cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)); err != nil {
			glog.Errorf("reply unsupported command: %v", err)
		}
	})
	return nil
}

// AddToLoop implements LoopAdder.
func (c UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
