package viewtree

import "weak"

// Handle is a non-owning reference to a Node. The host's render tree owns the
// node; a Handle never keeps it alive.
type Handle struct {
	ptr weak.Pointer[Node]
	id  string
}

// HandleOf returns a handle to n. A nil node yields the zero Handle.
func HandleOf(n *Node) Handle {
	if n == nil {
		return Handle{}
	}
	return Handle{ptr: weak.Make(n), id: n.ID}
}

// Value returns the node if it is still alive and attached, else nil.
func (h Handle) Value() *Node {
	n := h.ptr.Value()
	if n == nil || !n.IsAttached() {
		return nil
	}
	return n
}

// ID returns the node ID captured when the handle was made.
func (h Handle) ID() string {
	return h.id
}

// IsZero reports whether the handle was never set.
func (h Handle) IsZero() bool {
	return h.id == "" && h.ptr == (weak.Pointer[Node]{})
}
