package registry

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

func scrollNode(id string) *viewtree.Node {
	return viewtree.NewScrollNode(id, core.NewRect(0, 0, 100, 100), core.Size{Width: 100, Height: 500})
}

func TestRegistry_PutGetRemove(t *testing.T) {
	r := New()

	_, ok := r.Get("feed")
	assert.False(t, ok)

	r.Put(Binding{TestID: "feed"})
	b, ok := r.Get("feed")
	require.True(t, ok)
	assert.Equal(t, "feed", b.TestID)
	assert.False(t, b.Resolved())

	assert.True(t, r.Remove("feed"))
	assert.False(t, r.Remove("feed"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_LastPutWins(t *testing.T) {
	r := New()
	first := scrollNode("first")
	second := scrollNode("second")

	r.Put(Binding{TestID: "feed", Target: viewtree.HandleOf(first)})
	r.Put(Binding{TestID: "feed", Target: viewtree.HandleOf(second)})

	b, ok := r.Get("feed")
	require.True(t, ok)
	assert.Equal(t, second, b.Target.Value())
	assert.Equal(t, 1, r.Len())

	_, owned := r.OwnerOf("first")
	assert.False(t, owned, "replaced binding should release its target")
	owner, owned := r.OwnerOf("second")
	assert.True(t, owned)
	assert.Equal(t, "feed", owner)
}

func TestRegistry_ListIDsSorted(t *testing.T) {
	r := New()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		r.Put(Binding{TestID: id})
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.ListIDs())
}

func TestRegistry_SetTargetAndOffset(t *testing.T) {
	r := New()
	node := scrollNode("list")

	assert.False(t, r.SetTarget("missing", node, core.Point{}))
	assert.False(t, r.SetOffset("missing", core.Point{}))

	r.Put(Binding{TestID: "feed"})
	require.True(t, r.SetTarget("feed", node, core.Point{Y: 40}))

	b, _ := r.Get("feed")
	assert.True(t, b.Resolved())
	assert.Equal(t, core.Point{Y: 40}, b.Offset)

	owner, ok := r.OwnerOf("list")
	require.True(t, ok)
	assert.Equal(t, "feed", owner)

	require.True(t, r.SetOffset("feed", core.Point{Y: 140}))
	b, _ = r.Get("feed")
	assert.Equal(t, core.Point{Y: 140}, b.Offset)
	runtime.KeepAlive(node)
}

func TestRegistry_RetargetReleasesOldOwner(t *testing.T) {
	r := New()
	a, b := scrollNode("a"), scrollNode("b")

	r.Put(Binding{TestID: "feed"})
	r.SetTarget("feed", a, core.Point{})
	r.SetTarget("feed", b, core.Point{})

	_, ok := r.OwnerOf("a")
	assert.False(t, ok)
	owner, ok := r.OwnerOf("b")
	assert.True(t, ok)
	assert.Equal(t, "feed", owner)
}

func TestRegistry_RemoveReleasesOwner(t *testing.T) {
	r := New()
	r.Put(Binding{TestID: "feed"})
	r.SetTarget("feed", scrollNode("list"), core.Point{})

	r.Remove("feed")
	_, ok := r.OwnerOf("list")
	assert.False(t, ok)
}

func TestRegistry_OwnerNotStolenByReplacedBinding(t *testing.T) {
	r := New()
	shared := scrollNode("shared")

	r.Put(Binding{TestID: "a"})
	r.SetTarget("a", shared, core.Point{})
	r.Put(Binding{TestID: "b"})
	r.SetTarget("b", shared, core.Point{})

	// a no longer owns "shared"; removing a must not clear b's ownership.
	r.Remove("a")
	owner, ok := r.OwnerOf("shared")
	require.True(t, ok)
	assert.Equal(t, "b", owner)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("id-%d", i%10)
			r.Put(Binding{TestID: id})
			r.SetOffset(id, core.Point{Y: float64(i)})
			r.Get(id)
			r.ListIDs()
			if i%7 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 10)
}
