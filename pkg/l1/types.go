// Package l1 defines how a robot controller (L1) is exposed to remote
// clients (L2) and how clients reach it.
package l1

import (
	"context"

	fx "github.com/robotalks/transbot.go/pkg/framework"
)

// Registrar publishes a controller to a registry and delivers its
// events to connected clients.
type Registrar interface {
	SendEvent(context.Context, fx.Message) error
}

// Command is a remote command waiting for a reply.
type Command interface {
	Msg() fx.Message
	// Done replies the command. It must be called exactly once.
	Done(fx.Message) error
}

// CommandMsg carries a Command through the Loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// ControllerRef identifies a controller in a registry.
type ControllerRef struct {
	// Type is the robot type, e.g. transbot.
	Type string
	// ID is unique per device.
	ID string
}

// Name is Type/ID.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid reports whether both Type and ID are set.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is published along with the ref.
type ControllerMeta struct {
	Description string            `json:"description,omitempty" toml:"description"`
	Labels      map[string]string `json:"labels,omitempty" toml:"labels"`
}

// ControllerInfo describes a registered controller.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Connector discovers and connects to controllers.
type Connector interface {
	Discover(context.Context) ([]ControllerInfo, error)
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is a client connection to a controller.
type ControllerConn interface {
	DoCommand(fx.Message) CommandFuture
}

// Result is the reply of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture delivers the Result of a command once.
type CommandFuture interface {
	ResultChan() <-chan Result
}

// Do sends a command and waits for its reply.
func Do(ctx context.Context, conn ControllerConn, msg fx.Message) (fx.Message, error) {
	select {
	case res := <-conn.DoCommand(msg).ResultChan():
		return res.Msg, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
