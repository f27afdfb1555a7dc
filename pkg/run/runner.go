// Package run manages background tasks for commands: spawning, signal
// driven shutdown and error collection.
package run

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

// Runnable is a background task driven by a context.
type Runnable interface {
	Run(context.Context) error
}

// RunnableFunc is func type of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runner runs Runnables and collects their errors.
type Runner struct {
	Context context.Context

	count  int
	errCh  chan error
	exitCh chan struct{}
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with the specified context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		errCh:   make(chan error, 1),
		exitCh:  make(chan struct{}),
	}
}

// HandleSignals cancels the runner's context on CtrlC or SIGTERM. A second
// signal forces Wait to give up on still-running tasks.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go spawns runnables with the runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		r.count++
		go func(runnable Runnable) {
			r.errCh <- runnable.Run(r.Context)
		}(runnable)
	}
	return r
}

// Wait blocks until every spawned Runnable stops and aggregates their
// errors. Context cancellation is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for i := 0; i < r.count; i++ {
		select {
		case <-r.exitCh:
			return errors.New("forced exit")
		case err := <-r.errCh:
			if err != context.Canceled {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCloser runs fn, which does not watch the context itself, and
// closes closer when the context is canceled so a blocked fn gets unstuck.
// closer is closed exactly once either way. This is how a bus session, whose
// only stop mechanism is its byte source failing, is wired to a context: on
// cancel the port is closed, the blocked read fails and the session winds
// down.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if err := closer.Close(); err != nil {
			glog.Errorf("close on cancel: %v", err)
		}
		<-errCh
		return context.Canceled
	case err := <-errCh:
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		return err
	}
}
