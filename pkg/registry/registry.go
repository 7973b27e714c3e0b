package registry

import (
	"sort"
	"sync"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// Registry maps testIDs to Bindings. It is safe for concurrent use; the lock
// is held for a single map access only.
type Registry struct {
	mu       sync.Mutex
	bindings map[string]Binding
	owners   map[string]string // target node ID -> testID
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		bindings: make(map[string]Binding),
		owners:   make(map[string]string),
	}
}

// Get returns a copy of the binding for testID.
func (r *Registry) Get(testID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[testID]
	return b, ok
}

// Put stores b, replacing any binding with the same testID (last mount wins).
func (r *Registry) Put(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.bindings[b.TestID]; ok {
		r.releaseLocked(old)
	}
	r.bindings[b.TestID] = b
	if id := b.Target.ID(); id != "" {
		r.owners[id] = b.TestID
	}
}

// Remove deletes the binding for testID. It reports whether one existed.
func (r *Registry) Remove(testID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[testID]
	if !ok {
		return false
	}
	r.releaseLocked(b)
	delete(r.bindings, testID)
	return true
}

// ListIDs returns all registered testIDs, sorted.
func (r *Registry) ListIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}

// OwnerOf returns the testID whose binding targets the node with nodeID.
func (r *Registry) OwnerOf(nodeID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	testID, ok := r.owners[nodeID]
	return testID, ok
}

// SetTarget records the resolved scroll target and its current offset.
// It reports false if testID is not registered.
func (r *Registry) SetTarget(testID string, target *viewtree.Node, offset core.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[testID]
	if !ok {
		return false
	}
	r.releaseLocked(b)
	b.Target = viewtree.HandleOf(target)
	b.Offset = offset
	r.bindings[testID] = b
	if target != nil {
		r.owners[target.ID] = testID
	}
	return true
}

// SetOffset updates the cached scroll offset. It reports false if testID is
// not registered.
func (r *Registry) SetOffset(testID string, offset core.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bindings[testID]
	if !ok {
		return false
	}
	b.Offset = offset
	r.bindings[testID] = b
	return true
}

// releaseLocked drops the owner entry of b's target if it still points at b.
func (r *Registry) releaseLocked(b Binding) {
	id := b.Target.ID()
	if id == "" {
		return
	}
	if r.owners[id] == b.TestID {
		delete(r.owners, id)
	}
}
