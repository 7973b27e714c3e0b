// Package introspect connects mounted elements to their scroll containers.
//
// When the host mounts an element that carries a testID it places a probe in
// the element's view tree and calls Mount. The introspector records the
// binding and resolves the scroll container on the main loop. The host may not
// have laid the tree out yet, so a failed resolution is retried a few times
// after a fixed delay. The wait happens off the main loop.
package introspect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/logger"
	"github.com/devicelab-dev/agent-bridge/pkg/mainloop"
	"github.com/devicelab-dev/agent-bridge/pkg/registry"
	"github.com/devicelab-dev/agent-bridge/pkg/resolver"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// Retry defaults
const (
	DefaultRetryDelay = 100 * time.Millisecond
	DefaultMaxRetries = 2
)

// Options configure an Introspector.
type Options struct {
	RetryDelay time.Duration
	MaxRetries int // Retries after the first attempt; negative disables retry
	Resolver   resolver.Options
}

// DefaultOptions returns the default retry policy and resolver thresholds.
func DefaultOptions() Options {
	return Options{
		RetryDelay: DefaultRetryDelay,
		MaxRetries: DefaultMaxRetries,
		Resolver:   resolver.DefaultOptions(),
	}
}

// Introspector owns the mount lifecycle of bindings.
type Introspector struct {
	loop     *mainloop.Loop
	reg      *registry.Registry
	resolver *resolver.Resolver
	opts     Options

	wg sync.WaitGroup
}

// New creates an Introspector. The registry doubles as the resolver's owner
// index, so containers already bound to one testID are skipped for others.
func New(loop *mainloop.Loop, reg *registry.Registry, opts Options) *Introspector {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Introspector{
		loop:     loop,
		reg:      reg,
		resolver: resolver.New(reg, opts.Resolver),
		opts:     opts,
	}
}

// Loop returns the main loop resolution runs on.
func (i *Introspector) Loop() *mainloop.Loop {
	return i.loop
}

// Registry returns the binding registry.
func (i *Introspector) Registry() *registry.Registry {
	return i.reg
}

// Mount registers handlers for the probe's testID and starts resolving its
// scroll container in the background. A later Mount for the same testID
// replaces the binding.
func (i *Introspector) Mount(ctx context.Context, probe *viewtree.Node, handlers registry.Handlers) error {
	if probe == nil || probe.TestID == "" {
		return core.ErrInvalidCommand.WithMessage("probe has no testID")
	}
	testID := probe.TestID

	i.reg.Put(registry.Binding{
		TestID:   testID,
		Handlers: handlers,
		Probe:    viewtree.HandleOf(probe),
	})
	logger.Debug("mounted %s", testID)

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if _, err := i.ResolveWithRetry(ctx, testID); err != nil {
			logger.WithFields(logrus.Fields{"testID": testID}).Warnf("scroll target unresolved: %v", err)
		}
	}()
	return nil
}

// Unmount removes the binding for testID.
func (i *Introspector) Unmount(testID string) bool {
	ok := i.reg.Remove(testID)
	if ok {
		logger.Debug("unmounted %s", testID)
	}
	return ok
}

// Wait blocks until background resolutions started by Mount have finished.
func (i *Introspector) Wait() {
	i.wg.Wait()
}

// ResolveInLoop resolves and records the scroll container for testID.
// It must be called on the main loop.
func (i *Introspector) ResolveInLoop(testID string) (resolver.Result, error) {
	b, ok := i.reg.Get(testID)
	if !ok {
		return resolver.Result{}, core.ErrNoNode.WithDetails(map[string]interface{}{"testID": testID})
	}
	probe := b.Probe.Value()
	if probe == nil {
		return resolver.Result{}, core.ErrNoNode.WithMessage("probe is no longer in the view tree")
	}

	res, found := i.resolver.Resolve(testID, probe)
	if !found {
		return resolver.Result{}, core.ErrNoScrollTarget
	}

	i.reg.SetTarget(testID, res.Target, res.Target.ContentOffset())
	logger.WithFields(logrus.Fields{
		"testID": testID,
		"target": res.Target.ID,
		"phase":  res.Phase.String(),
	}).Debug("scroll target resolved")
	return res, nil
}

// TargetInLoop returns the live scroll container bound to testID, resolving
// on demand when the binding has none. It must be called on the main loop.
func (i *Introspector) TargetInLoop(testID string) (*viewtree.Node, error) {
	b, ok := i.reg.Get(testID)
	if !ok {
		return nil, core.ErrNoNode.WithDetails(map[string]interface{}{"testID": testID})
	}
	if target := b.Target.Value(); target != nil {
		return target, nil
	}
	res, err := i.ResolveInLoop(testID)
	if err != nil {
		return nil, err
	}
	return res.Target, nil
}

// ResolveNow runs one resolution on the main loop and waits for it.
func (i *Introspector) ResolveNow(ctx context.Context, testID string) (resolver.Result, error) {
	var (
		res resolver.Result
		err error
	)
	if doErr := i.loop.Do(ctx, func() {
		res, err = i.ResolveInLoop(testID)
	}); doErr != nil {
		return resolver.Result{}, doErr
	}
	return res, err
}

// ResolveWithRetry resolves testID, retrying after RetryDelay while no scroll
// target is found, at most MaxRetries times. Other errors are not retried.
func (i *Introspector) ResolveWithRetry(ctx context.Context, testID string) (resolver.Result, error) {
	var res resolver.Result
	attempt := 0

	operation := func() error {
		attempt++
		r, err := i.ResolveNow(ctx, testID)
		if err == nil {
			res = r
			return nil
		}
		if errors.Is(err, core.ErrNoScrollTarget) {
			return err
		}
		return &backoff.PermanentError{Err: err}
	}

	notify := func(err error, wait time.Duration) {
		logger.Debug("resolve %s attempt %d failed (%v), retrying in %s", testID, attempt, err, wait)
	}

	err := backoff.RetryNotify(operation, i.policy(ctx), notify)
	return res, err
}

func (i *Introspector) policy(ctx context.Context) backoff.BackOff {
	if i.opts.MaxRetries < 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(i.opts.RetryDelay), uint64(i.opts.MaxRetries))
	return backoff.WithContext(b, ctx)
}
