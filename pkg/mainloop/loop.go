// Package mainloop provides the single goroutine that owns the view tree.
//
// The host toolkit only allows its tree to be touched from the main thread.
// Loop reproduces that affinity: work submitted from any goroutine is run,
// one function at a time, on the goroutine executing Run.
package mainloop

import (
	"context"
	"sync"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// DefaultQueueSize is the event queue capacity used by New.
const DefaultQueueSize = 256

// Loop serializes work onto one goroutine.
type Loop struct {
	queue    chan func()
	stopCh   chan struct{}
	stopOnce sync.Once
	running  chan struct{}
	runOnce  sync.Once
}

// New creates a Loop. Call Run to start processing.
func New() *Loop {
	return NewWithQueue(DefaultQueueSize)
}

// NewWithQueue creates a Loop with the given queue capacity.
func NewWithQueue(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		queue:   make(chan func(), size),
		stopCh:  make(chan struct{}),
		running: make(chan struct{}),
	}
}

// Run processes queued functions until ctx is cancelled or Stop is called.
// It must be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	l.runOnce.Do(func() { close(l.running) })
	defer l.Stop()

	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends Run. Stop is idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Started returns a channel closed once Run has begun.
func (l *Loop) Started() <-chan struct{} {
	return l.running
}

// Post enqueues fn without waiting for it. It reports false if the loop has
// stopped or the queue is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopCh:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.stopCh:
		return false
	default:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
// It returns core.ErrLoopStopped if the loop stops first, or ctx's error.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	select {
	case <-l.stopCh:
		return core.ErrLoopStopped
	default:
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case l.queue <- wrapped:
	case <-l.stopCh:
		return core.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-l.stopCh:
		// fn may still be mid-flight if Stop raced with it; wait for it.
		select {
		case <-done:
			return nil
		default:
			return core.ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
