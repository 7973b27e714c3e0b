// Package host provides a stand-in for the host UI toolkit: a view tree loaded
// from a snapshot file whose elements record the callbacks agents trigger.
package host

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/introspect"
	"github.com/devicelab-dev/agent-bridge/pkg/logger"
	"github.com/devicelab-dev/agent-bridge/pkg/registry"
	"github.com/devicelab-dev/agent-bridge/pkg/resolver"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// Event is one element callback triggered by an agent.
type Event struct {
	TestID string
	Action string
	Detail string
	At     time.Time
}

// Static is a host whose tree never changes shape. Every probe is mounted
// as a scroll-capable element, so swipes without a handler turn into scrolls.
type Static struct {
	root  *viewtree.Node
	intro *introspect.Introspector

	mu     sync.Mutex
	events []Event
}

// LoadFile parses a view-tree snapshot from path.
func LoadFile(path string) (*viewtree.Node, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided snapshot
	if err != nil {
		return nil, err
	}
	root, err := viewtree.ParseSource(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return root, nil
}

// NewStatic creates a host serving root.
func NewStatic(root *viewtree.Node, intro *introspect.Introspector) *Static {
	return &Static{root: root, intro: intro}
}

// Root implements agent.TreeProvider.
func (h *Static) Root() *viewtree.Node {
	return h.root
}

// MountAll mounts every probe in the tree and returns how many were mounted.
// Probes are collected on the main loop; Mount itself does not block it.
func (h *Static) MountAll(ctx context.Context) (int, error) {
	var probes []*viewtree.Node
	if err := h.intro.Loop().Do(ctx, func() { probes = h.root.Probes() }); err != nil {
		return 0, err
	}

	n := 0
	for _, probe := range probes {
		if err := h.intro.Mount(ctx, probe, h.handlers(probe.TestID)); err != nil {
			return n, fmt.Errorf("mount %s: %w", probe.TestID, err)
		}
		n++
	}
	return n, nil
}

// Events returns the callbacks recorded so far.
func (h *Static) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

func (h *Static) handlers(testID string) registry.Handlers {
	return registry.Handlers{
		OnTap: func() {
			h.record(testID, "tap", "")
		},
		OnLongPress: func(d time.Duration) {
			h.record(testID, "longPress", d.String())
		},
		OnText: func(text string) {
			h.record(testID, "inputText", text)
		},
		Scrollable: true,
	}
}

func (h *Static) record(testID, action, detail string) {
	h.mu.Lock()
	h.events = append(h.events, Event{TestID: testID, Action: action, Detail: detail, At: time.Now()})
	h.mu.Unlock()

	logger.WithFields(logrus.Fields{"testID": testID, "action": action}).Infof("element callback %s", detail)
}

// Resolution is the outcome of resolving one probe offline.
type Resolution struct {
	TestID     string     `json:"testID"`
	Probe      string     `json:"probe"`
	Position   core.Point `json:"position"`
	Target     string     `json:"target,omitempty"`
	Phase      string     `json:"phase,omitempty"`
	Candidates int        `json:"candidates,omitempty"`
}

// ResolveAll resolves every probe in root, in tree order, without a main
// loop. Each resolved container is claimed for its testID, so later probes
// skip it the same way mounted bindings would.
func ResolveAll(root *viewtree.Node, opts resolver.Options) []Resolution {
	reg := registry.New()
	r := resolver.New(reg, opts)

	var out []Resolution
	for _, probe := range root.Probes() {
		res := Resolution{TestID: probe.TestID, Probe: probe.ID, Position: probe.Frame.Origin()}
		reg.Put(registry.Binding{TestID: probe.TestID, Probe: viewtree.HandleOf(probe)})
		if found, ok := r.Resolve(probe.TestID, probe); ok {
			reg.SetTarget(probe.TestID, found.Target, found.Target.ContentOffset())
			res.Target = found.Target.ID
			res.Phase = found.Phase.String()
			res.Candidates = found.Candidates
		}
		out = append(out, res)
	}
	return out
}
