package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait when a second stop signal arrives.
var ErrForcedExit = errors.New("forced exit")

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string { return r.name }

// NamedRun attaches a name to a Runnable for logging.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

func runnableName(r Runnable, index int) string {
	if named, ok := r.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("#%d", index)
}

type runResult struct {
	name string
	err  error
}

// Runner runs Runnables in goroutines sharing one context.
type Runner struct {
	Context context.Context

	started int
	results chan runResult
	forced  chan struct{}
}

// NewRunner creates a Runner on a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a Runner on ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		results: make(chan runResult),
		forced:  make(chan struct{}),
	}
}

// HandleSignals cancels the context on SIGINT or SIGTERM. A second
// signal makes Wait give up on the remaining Runnables.
func (r *Runner) HandleSignals() *Runner {
	parent := r.Context
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-ctx.Done()
		stop()
		if parent.Err() != nil {
			return
		}
		glog.Info("stop requested")
		again := make(chan os.Signal, 1)
		signal.Notify(again, os.Interrupt, syscall.SIGTERM)
		<-again
		glog.Error("stop requested again, force exit")
		close(r.forced)
	}()
	return r
}

// Go starts Runnables.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := runnableName(runnable, r.started)
		r.started++
		go func(runnable Runnable) {
			glog.V(4).Infof("runner %s started", name)
			err := runnable.Run(r.Context)
			glog.V(4).Infof("runner %s stopped: %v", name, err)
			r.results <- runResult{name: name, err: err}
		}(runnable)
	}
	return r
}

// Wait blocks until all started Runnables return and aggregates their
// errors, ignoring context.Canceled.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for r.started > 0 {
		select {
		case <-r.forced:
			return ErrForcedExit
		case res := <-r.results:
			r.started--
			if res.err != nil && !errors.Is(res.err, context.Canceled) {
				errs.Add(fmt.Errorf("%s: %w", res.name, res.err))
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs fn which doesn't take a context. onCancel is
// called once ctx is done and must make fn return.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	if onCancel != nil {
		onCancel()
	}
	<-done
	return context.Canceled
}

// RunWithContextCloser runs fn and closes closer exactly once, when ctx
// is done or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var closed bool
	err := RunWithContextCancel(ctx, func() {
		closer.Close()
		closed = true
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
