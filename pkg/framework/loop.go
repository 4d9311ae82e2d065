package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultLoopInterval is the default period between iterations.
const DefaultLoopInterval = 100 * time.Millisecond

// Loop runs controllers periodically in priority order and carries
// messages posted between iterations.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	pending []Message
	lock    sync.Mutex
	wakeUp  chan struct{}
}

type loopCtxKeyType struct{}

var loopCtxKey loopCtxKeyType

// LoopCtlFrom gets the LoopControl from the context passed to runners of a Loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{
		Interval: DefaultLoopInterval,
		wakeUp:   make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	return l
}

// AddRunnable adds Runnables started together with the Loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.pending = append(l.pending, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp <- struct{}{}:
	default:
	}
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUp == nil {
		l.wakeUp = make(chan struct{}, 1)
	}
	ctx = context.WithValue(ctx, loopCtxKey, LoopControl(l))
	runner := NewRunnerWith(ctx).Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultLoopInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUp:
		}
		l.iterate(ctx)
	}
}

// RunOrFail is intended to be used in main to run the loop until
// interrupted.
func (l *Loop) RunOrFail() {
	runner := NewRunner().HandleSignals().Go(l)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}

func (l *Loop) iterate(ctx context.Context) {
	iter := &iteration{loop: l, ctx: ctx, time: time.Now()}
	l.lock.Lock()
	iter.messages, l.pending = l.pending, nil
	l.lock.Unlock()
	for lv := 0; lv < PriorityLevels; lv++ {
		iter.level = lv
		for _, ctl := range l.controllers[lv] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
}

type iteration struct {
	loop     *Loop
	ctx      context.Context
	time     time.Time
	level    int
	messages []Message
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) PriorityLevel() int       { return t.level }
func (t *iteration) Messages() MessageStore   { return t }
func (t *iteration) PostMessage(msg Message)  { t.loop.PostMessage(msg) }
func (t *iteration) TriggerNext()             { t.loop.TriggerNext() }

type messageContext struct {
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) Message() Message { return c.msg }
func (c *messageContext) Take()            { c.taken = true }
func (c *messageContext) Stop()            { c.stop = true }

func (t *iteration) ProcessMessages(fn func(MessageContext)) {
	remains := t.messages[:0]
	for n, msg := range t.messages {
		mc := &messageContext{msg: msg}
		fn(mc)
		if !mc.taken {
			remains = append(remains, msg)
		}
		if mc.stop {
			remains = append(remains, t.messages[n+1:]...)
			break
		}
	}
	t.messages = remains
}
