package agent

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/introspect"
	"github.com/devicelab-dev/agent-bridge/pkg/journal"
	"github.com/devicelab-dev/agent-bridge/pkg/logger"
	"github.com/devicelab-dev/agent-bridge/pkg/mainloop"
	"github.com/devicelab-dev/agent-bridge/pkg/registry"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// TreeProvider supplies the current view tree. Root is called on the main loop.
type TreeProvider interface {
	Root() *viewtree.Node
}

// DeviceProvider reports device details. DeviceInfo is called on the main loop.
type DeviceProvider interface {
	DeviceInfo() core.DeviceInfo
}

// Recorder persists executed commands.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Options configure a Dispatcher.
type Options struct {
	DedupeTTL      time.Duration // Zero disables replay protection
	HierarchyDepth int
	Device         DeviceProvider
	Recorder       Recorder
}

// Dispatcher executes agent commands. Everything that touches the view tree
// or element handlers runs on the main loop.
type Dispatcher struct {
	loop   *mainloop.Loop
	intro  *introspect.Introspector
	reg    *registry.Registry
	tree   TreeProvider
	opts   Options
	dedupe *cache.Cache
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(loop *mainloop.Loop, intro *introspect.Introspector, tree TreeProvider, opts Options) *Dispatcher {
	d := &Dispatcher{
		loop:  loop,
		intro: intro,
		reg:   intro.Registry(),
		tree:  tree,
		opts:  opts,
	}
	if opts.DedupeTTL > 0 {
		d.dedupe = cache.New(opts.DedupeTTL, 2*opts.DedupeTTL)
	}
	return d
}

// Handle parses and executes one raw command message from session and
// records it in the journal.
func (d *Dispatcher) Handle(ctx context.Context, session string, raw []byte) Response {
	start := time.Now()

	cmd, err := ParseCommand(raw)
	var resp Response
	if err != nil {
		resp = Fail(err)
		resp.ID = cmd.ID
	} else {
		resp = d.Execute(ctx, cmd)
	}

	d.record(ctx, session, cmd, raw, resp, time.Since(start))
	return resp
}

// Execute runs cmd. Mutating commands with an id already seen within the
// dedupe window return the original response without running again.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) Response {
	dedupe := d.dedupe != nil && cmd.ID != "" && cmd.Mutating()
	if dedupe {
		if cached, found := d.dedupe.Get(cmd.ID); found {
			logger.Debug("replayed %s %s", cmd.Action, cmd.ID)
			return cached.(Response)
		}
	}

	resp := d.dispatch(ctx, cmd)
	resp.ID = cmd.ID

	fields := logrus.Fields{"action": cmd.Action, "id": cmd.ID}
	if cmd.TestID != "" {
		fields["testID"] = cmd.TestID
	}
	if resp.Status.IsSuccess() {
		logger.WithFields(fields).Debug("command ok")
	} else {
		logger.WithFields(fields).Warnf("command failed: %s", resp.Error)
	}

	if dedupe {
		d.dedupe.Set(cmd.ID, resp, cache.DefaultExpiration)
	}
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd Command) Response {
	switch cmd.Action {
	case ActionPing:
		return OK(map[string]interface{}{"pong": true})
	case ActionTap:
		return d.tap(ctx, cmd)
	case ActionLongPress:
		return d.longPress(ctx, cmd)
	case ActionInputText:
		return d.inputText(ctx, cmd)
	case ActionScroll:
		return d.scroll(ctx, cmd)
	case ActionSwipe:
		return d.swipe(ctx, cmd)
	case ActionHierarchy:
		return d.hierarchy(ctx)
	case ActionLogs:
		limit := int(cmd.AmountOr(DefaultLogLimit))
		return OK(map[string]interface{}{"logs": logger.Entries(limit)})
	case ActionDeviceInfo:
		return d.deviceInfo(ctx)
	case ActionList:
		return OK(map[string]interface{}{"testIDs": d.reg.ListIDs()})
	default:
		return Fail(core.ErrUnknownAction.WithMessage("unknown action: " + cmd.Action))
	}
}

// onLoop runs fn on the main loop and wraps its outcome in a Response.
func (d *Dispatcher) onLoop(ctx context.Context, fn func() (map[string]interface{}, error)) Response {
	var (
		payload map[string]interface{}
		err     error
	)
	if doErr := d.loop.Do(ctx, func() {
		payload, err = fn()
	}); doErr != nil {
		return Fail(doErr)
	}
	if err != nil {
		return Fail(err)
	}
	return OK(payload)
}

// binding looks up testID. It is safe off the loop, but handlers must only
// be called on it.
func (d *Dispatcher) binding(testID string) (registry.Binding, error) {
	if testID == "" {
		return registry.Binding{}, core.ErrInvalidCommand.WithMessage("missing testID")
	}
	b, ok := d.reg.Get(testID)
	if !ok {
		return registry.Binding{}, core.ErrNoNode.WithDetails(map[string]interface{}{"testID": testID})
	}
	return b, nil
}

func (d *Dispatcher) tap(ctx context.Context, cmd Command) Response {
	return d.onLoop(ctx, func() (map[string]interface{}, error) {
		b, err := d.binding(cmd.TestID)
		if err != nil {
			return nil, err
		}
		if b.Handlers.OnTap == nil {
			return nil, core.ErrNoHandler.WithMessage("element has no tap handler")
		}
		b.Handlers.OnTap()
		return nil, nil
	})
}

func (d *Dispatcher) longPress(ctx context.Context, cmd Command) Response {
	duration := time.Duration(cmd.AmountOr(DefaultLongPressMillis) * float64(time.Millisecond))
	return d.onLoop(ctx, func() (map[string]interface{}, error) {
		b, err := d.binding(cmd.TestID)
		if err != nil {
			return nil, err
		}
		if b.Handlers.OnLongPress == nil {
			return nil, core.ErrNoHandler.WithMessage("element has no long press handler")
		}
		b.Handlers.OnLongPress(duration)
		return map[string]interface{}{"duration": duration.Milliseconds()}, nil
	})
}

func (d *Dispatcher) inputText(ctx context.Context, cmd Command) Response {
	return d.onLoop(ctx, func() (map[string]interface{}, error) {
		b, err := d.binding(cmd.TestID)
		if err != nil {
			return nil, err
		}
		if b.Handlers.OnText == nil {
			return nil, core.ErrNoHandler.WithMessage("element has no text handler")
		}
		b.Handlers.OnText(cmd.Value)
		return nil, nil
	})
}

func (d *Dispatcher) scroll(ctx context.Context, cmd Command) Response {
	dir, err := core.ParseDirection(cmd.Direction)
	if err != nil {
		return Fail(err)
	}
	amount := cmd.AmountOr(DefaultScrollAmount)
	return d.onLoop(ctx, func() (map[string]interface{}, error) {
		if _, err := d.binding(cmd.TestID); err != nil {
			return nil, err
		}
		return d.scrollInLoop(cmd.TestID, dir, amount)
	})
}

// scrollInLoop applies a scroll to the binding's target, resolving it first
// if the binding has no live target.
func (d *Dispatcher) scrollInLoop(testID string, dir core.Direction, amount float64) (map[string]interface{}, error) {
	target, err := d.intro.TargetInLoop(testID)
	if err != nil {
		return nil, err
	}
	b, ok := d.reg.Get(testID)
	if !ok {
		return nil, core.ErrNoNode.WithDetails(map[string]interface{}{"testID": testID})
	}

	applied := simulateScroll(target, b.Offset, dir, amount)
	d.reg.SetOffset(testID, applied)

	return map[string]interface{}{
		"target":    target.ID,
		"direction": dir,
		"amount":    amount,
		"offset":    applied,
	}, nil
}

func (d *Dispatcher) swipe(ctx context.Context, cmd Command) Response {
	dir, err := core.ParseDirection(cmd.Direction)
	if err != nil {
		return Fail(err)
	}
	velocity := core.ParseVelocity(cmd.Velocity)
	return d.onLoop(ctx, func() (map[string]interface{}, error) {
		b, err := d.binding(cmd.TestID)
		if err != nil {
			return nil, err
		}
		switch {
		case b.Handlers.OnSwipe != nil:
			b.Handlers.OnSwipe(dir, velocity)
			return map[string]interface{}{"direction": dir, "velocity": velocity}, nil
		case b.Handlers.Scrollable:
			return d.scrollInLoop(cmd.TestID, dir, velocity.Distance())
		default:
			return nil, core.ErrNoHandler.WithMessage("element has no swipe handler and is not scrollable")
		}
	})
}

func (d *Dispatcher) hierarchy(ctx context.Context) Response {
	return d.onLoop(ctx, func() (map[string]interface{}, error) {
		var root *viewtree.Node
		if d.tree != nil {
			root = d.tree.Root()
		}
		if root == nil {
			return nil, core.ErrNoNode.WithMessage("no view tree")
		}
		return map[string]interface{}{"hierarchy": viewtree.Serialize(root, d.opts.HierarchyDepth)}, nil
	})
}

func (d *Dispatcher) deviceInfo(ctx context.Context) Response {
	if d.opts.Device == nil {
		return Fail(core.ErrNoHandler.WithMessage("device info unavailable"))
	}
	return d.onLoop(ctx, func() (map[string]interface{}, error) {
		return map[string]interface{}{"device": d.opts.Device.DeviceInfo()}, nil
	})
}

func (d *Dispatcher) record(ctx context.Context, session string, cmd Command, raw []byte, resp Response, took time.Duration) {
	if d.opts.Recorder == nil {
		return
	}
	err := d.opts.Recorder.Record(ctx, journal.Entry{
		Session:   session,
		CommandID: cmd.ID,
		Action:    cmd.Action,
		TestID:    cmd.TestID,
		Request:   string(raw),
		Status:    string(resp.Status),
		Error:     resp.Error,
		Duration:  took,
	})
	if err != nil {
		logger.Warn("journal write failed: %v", err)
	}
}
