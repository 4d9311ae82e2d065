// Package transbot is the typed command API of the Transbot expansion
// board, and the L1 controller exposing it to remote clients.
package transbot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/transbot.go/pkg/l0/comm"
)

// DefaultPollInterval is how often a query checks for its response.
const DefaultPollInterval = 5 * time.Millisecond

// SaveFlag asks the board to persist a setting in flash.
const SaveFlag byte = 0x5f

// Robot sends typed commands through an Engine and decodes responses.
// The Engine must be running.
type Robot struct {
	PollInterval time.Duration

	engine    *comm.Engine
	queryLock sync.Mutex
}

// New creates a Robot.
func New(e *comm.Engine) *Robot {
	return &Robot{PollInterval: DefaultPollInterval, engine: e}
}

// Engine returns the underlying Engine.
func (r *Robot) Engine() *comm.Engine {
	return r.engine
}

func (r *Robot) send(code comm.CommandCode, payload ...byte) error {
	f, err := r.engine.BuildCommand(code)
	if err != nil {
		return err
	}
	defer f.Release()
	if err = f.SetPayload(payload); err != nil {
		return err
	}
	return r.engine.Send(f)
}

// query requests a response and waits for it. decode returns false to
// skip a response not matching the request.
func (r *Robot) query(ctx context.Context, code comm.ResponseCode, param byte, decode func([]byte) bool) error {
	r.queryLock.Lock()
	defer r.queryLock.Unlock()
	if n := r.drain(code); n > 0 {
		glog.V(2).Infof("drained %d stale %s", n, code)
	}
	if err := r.send(comm.CmdSendRequest, byte(code), param); err != nil {
		return err
	}
	interval := r.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		f, err := r.engine.Take(code)
		switch {
		case err == nil:
			payload, err := f.Payload()
			f.Release()
			if err != nil {
				return err
			}
			if decode(payload) {
				return nil
			}
			continue
		case !isNoResponse(err):
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Robot) drain(code comm.ResponseCode) (n int) {
	for {
		f, err := r.engine.Take(code)
		if err != nil {
			return
		}
		f.Release()
		n++
	}
}

func isNoResponse(err error) bool {
	return errors.Is(err, comm.ErrEmpty) || errors.Is(err, comm.ErrNoSlot)
}
