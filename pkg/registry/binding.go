// Package registry holds the agent bindings: the map from testID to the
// element's action handlers, its probe, its resolved scroll target and the
// cached scroll offset.
package registry

import (
	"time"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// Handlers are the element callbacks an agent command can trigger.
// All of them run on the main loop.
type Handlers struct {
	OnTap       func()
	OnLongPress func(duration time.Duration)
	OnText      func(text string)
	OnSwipe     func(direction core.Direction, velocity core.Velocity)

	// Scrollable marks the element as scroll-capable: swipes without an
	// OnSwipe handler are translated into scrolls.
	Scrollable bool
}

// Binding is the registry entry for one testID.
type Binding struct {
	TestID   string
	Handlers Handlers

	Probe  viewtree.Handle // marker placed in the element's tree
	Target viewtree.Handle // resolved scroll container, zero until resolved
	Offset core.Point      // cached scroll position of Target
}

// Resolved reports whether the binding has a live scroll target.
func (b Binding) Resolved() bool {
	return b.Target.Value() != nil
}
