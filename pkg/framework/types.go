package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is a unit of data passed between controllers in a Loop.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller runs once per Loop iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// ControlContext provides the context of the current iteration.
type ControlContext interface {
	LoopControl

	// Context retrieves context.Context.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Messages retrieves messages posted before this iteration and not
	// yet taken by controllers of higher priority.
	Messages() MessageStore
}

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext schedules the next iteration immediately.
	TriggerNext()
}

// MessageStore provides access to messages of an iteration.
type MessageStore interface {
	// ProcessMessages calls fn for each message in order.
	ProcessMessages(fn func(MessageContext))
}

// MessageContext is the current message in ProcessMessages.
type MessageContext interface {
	// Message gets the current message.
	Message() Message
	// Take removes the message from the store.
	Take()
	// Stop skips remaining messages.
	Stop()
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 8

// Predefined priority levels, lower runs first.
const (
	PrLvTop      int = 0
	PrLvSense    int = 1
	PrLvControl  int = 3
	PrLvAcuate   int = 5
	PrLvPostProc int = PriorityLevels - 2
	PrLvIdle     int = PriorityLevels - 1
)

// LoopAdder adds its controllers and runners to a Loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}
