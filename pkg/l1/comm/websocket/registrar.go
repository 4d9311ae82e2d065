package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/transbot.go/pkg/framework"
	"github.com/robotalks/transbot.go/pkg/l1"
	"github.com/robotalks/transbot.go/pkg/l1/comm"
	"github.com/robotalks/transbot.go/pkg/l1/msgs"
)

// DefaultPath is where the endpoint is served.
const DefaultPath = "/robo"

// MetaSuffix is appended to the path to serve the controller info.
const MetaSuffix = "/meta"

type infoJSON struct {
	Type string            `json:"type"`
	ID   string            `json:"id"`
	Meta l1.ControllerMeta `json:"meta"`
}

// Registrar implements l1.Registrar by accepting websocket clients.
// Events are broadcast to every connected client.
type Registrar struct {
	Addr     string
	Path     string
	Info     l1.ControllerInfo
	Listener net.Listener

	lock  sync.Mutex
	pipes map[*comm.Pipe]struct{}
}

// NewRegistrar creates a Registrar listening on addr.
func NewRegistrar(addr string, info l1.ControllerInfo) *Registrar {
	return &Registrar{Addr: addr, Path: DefaultPath, Info: info}
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	r.lock.Lock()
	pipes := make([]*comm.Pipe, 0, len(r.pipes))
	for pipe := range r.pipes {
		pipes = append(pipes, pipe)
	}
	r.lock.Unlock()
	var errs fx.AggregatedError
	for _, pipe := range pipes {
		errs.Add(pipe.SendEventMsg(msg))
	}
	return errs.Aggregate()
}

// Clients returns the number of connected clients.
func (r *Registrar) Clients() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.pipes)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("websocket", r))
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	path := r.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		r.serve(ctx, conn)
	}))
	mux.HandleFunc(path+MetaSuffix, r.serveMeta)
	srv := &http.Server{Addr: r.Addr, Handler: mux}
	ln := r.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", r.Addr); err != nil {
			return err
		}
	}
	glog.Infof("websocket endpoint at %s%s", ln.Addr(), path)
	err := fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		return srv.Serve(ln)
	})
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (r *Registrar) serveMeta(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&infoJSON{Type: r.Info.Ref.Type, ID: r.Info.Ref.ID, Meta: r.Info.Meta})
}

func (r *Registrar) serve(ctx context.Context, conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	pipe := comm.NewPipe(New(conn), nil)
	pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		comm.PostTyped(ctx, pipe, msg, typed)
		return nil
	})
	r.lock.Lock()
	if r.pipes == nil {
		r.pipes = make(map[*comm.Pipe]struct{})
	}
	r.pipes[pipe] = struct{}{}
	r.lock.Unlock()
	remote := conn.Request().RemoteAddr
	glog.Infof("client %s connected", remote)
	err := pipe.Run(ctx)
	r.lock.Lock()
	delete(r.pipes, pipe)
	r.lock.Unlock()
	glog.Infof("client %s disconnected: %v", remote, err)
}
