// Package viewtree models the host toolkit's view tree as seen by the agent bridge.
//
// The tree is owned by the host. Everything that reads or mutates it must run on
// the main loop (see package mainloop); Node itself does no locking.
package viewtree

import (
	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// Node is one rectangular container in the view tree.
type Node struct {
	ID     string    // Opaque identity assigned by the host
	Type   string    // Host class or element type (e.g. "XCUIElementTypeScrollView")
	Label  string    // Accessibility label
	TestID string    // Set on probe markers and bound elements
	Frame  core.Rect // Window coordinates

	Scrollable  bool
	ContentSize core.Size

	Children []*Node
	Parent   *Node

	offset   core.Point
	detached bool
}

// NewNode creates a plain container node.
func NewNode(id string, frame core.Rect) *Node {
	return &Node{ID: id, Frame: frame}
}

// NewScrollNode creates a scrollable node.
func NewScrollNode(id string, frame core.Rect, content core.Size) *Node {
	return &Node{ID: id, Frame: frame, Scrollable: true, ContentSize: content}
}

// NewProbe creates a zero-size marker node carrying testID, positioned at p.
func NewProbe(id, testID string, p core.Point) *Node {
	return &Node{ID: id, TestID: testID, Frame: core.Rect{X: p.X, Y: p.Y}}
}

// Add appends children and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		c.detached = false
		n.Children = append(n.Children, c)
	}
	return n
}

// Remove detaches child from n. The child and its subtree are marked detached,
// so handles to them stop resolving.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.markDetached()
			return true
		}
	}
	return false
}

func (n *Node) markDetached() {
	n.detached = true
	for _, c := range n.Children {
		c.markDetached()
	}
}

// IsAttached reports whether the node is still part of a live tree.
func (n *Node) IsAttached() bool {
	return n != nil && !n.detached
}

// Root walks to the top of the tree.
func (n *Node) Root() *Node {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

// Siblings returns the parent's other children, in order.
func (n *Node) Siblings() []*Node {
	if n.Parent == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Parent.Children))
	for _, c := range n.Parent.Children {
		if c != n {
			out = append(out, c)
		}
	}
	return out
}

// Depth returns the number of ancestors.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first node in the subtree with the given ID.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindByTestID returns the first node in the subtree carrying testID.
func (n *Node) FindByTestID(testID string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.TestID == testID {
			found = c
			return false
		}
		return true
	})
	return found
}

// Probes returns every zero-size node carrying a testID, in tree order.
func (n *Node) Probes() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.IsProbe() {
			out = append(out, c)
		}
		return true
	})
	return out
}

// IsProbe reports whether n is a zero-size marker with a testID.
func (n *Node) IsProbe() bool {
	return n.TestID != "" && n.Frame.IsEmpty()
}

// ContentOffset returns the current scroll position.
func (n *Node) ContentOffset() core.Point {
	return n.offset
}

// MaxOffset returns the largest valid offset per axis: max(0, content - viewport).
func (n *Node) MaxOffset() core.Point {
	return core.Point{
		X: max(0, n.ContentSize.Width-n.Frame.Width),
		Y: max(0, n.ContentSize.Height-n.Frame.Height),
	}
}

// SetContentOffset moves the scroll position, clamped to [0, MaxOffset].
// It returns the offset actually applied.
func (n *Node) SetContentOffset(p core.Point) core.Point {
	limit := n.MaxOffset()
	n.offset = core.Point{
		X: clamp(p.X, 0, limit.X),
		Y: clamp(p.Y, 0, limit.Y),
	}
	return n.offset
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
