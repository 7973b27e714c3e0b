package viewtree

import (
	"encoding/json"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// DefaultMaxDepth bounds hierarchy serialization.
const DefaultMaxDepth = 50

// Serialize converts the subtree rooted at n into ElementInfo. Nodes deeper
// than maxDepth are omitted and their parent is flagged Truncated.
// maxDepth <= 0 uses DefaultMaxDepth.
func Serialize(n *Node, maxDepth int) *core.ElementInfo {
	if n == nil {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return serialize(n, 0, maxDepth)
}

func serialize(n *Node, depth, maxDepth int) *core.ElementInfo {
	info := &core.ElementInfo{
		ID:         n.ID,
		Type:       n.Type,
		Label:      n.Label,
		TestID:     n.TestID,
		Frame:      n.Frame,
		Scrollable: n.Scrollable,
	}
	if n.Scrollable {
		size := n.ContentSize
		offset := n.ContentOffset()
		info.ContentSize = &size
		info.ContentOffset = &offset
	}

	if len(n.Children) == 0 {
		return info
	}
	if depth >= maxDepth {
		info.Truncated = true
		return info
	}
	info.Children = make([]*core.ElementInfo, 0, len(n.Children))
	for _, c := range n.Children {
		info.Children = append(info.Children, serialize(c, depth+1, maxDepth))
	}
	return info
}

// MarshalHierarchy serializes the subtree as indented JSON.
func MarshalHierarchy(n *Node, maxDepth int) ([]byte, error) {
	return json.MarshalIndent(Serialize(n, maxDepth), "", "  ")
}
