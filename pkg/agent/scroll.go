package agent

import (
	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// simulateScroll moves target from the cached offset by amount in dir and
// returns the offset actually applied. Each axis is clamped to
// [0, max(0, content - viewport)].
func simulateScroll(target *viewtree.Node, cached core.Point, dir core.Direction, amount float64) core.Point {
	delta := dir.Delta(amount)
	return target.SetContentOffset(core.Point{
		X: cached.X + delta.X,
		Y: cached.Y + delta.Y,
	})
}
