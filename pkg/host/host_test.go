package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/introspect"
	"github.com/devicelab-dev/agent-bridge/pkg/mainloop"
	"github.com/devicelab-dev/agent-bridge/pkg/registry"
	"github.com/devicelab-dev/agent-bridge/pkg/resolver"
)

const snapshot = `<?xml version="1.0" encoding="UTF-8"?>
<AppiumAUT>
  <XCUIElementTypeWindow id="window" x="0" y="0" width="390" height="844">
    <XCUIElementTypeOther id="feed-marker" x="0" y="100" width="390" height="500">
      <XCUIElementTypeOther id="feed-probe" testID="feed" x="0" y="100" width="0" height="0"/>
    </XCUIElementTypeOther>
    <XCUIElementTypeScrollView id="feed-scroll" x="0" y="100" width="390" height="500" contentHeight="2400"/>
    <XCUIElementTypeOther id="carousel-marker" x="0" y="650" width="390" height="120">
      <XCUIElementTypeOther id="carousel-probe" testID="carousel" x="0" y="650" width="0" height="0"/>
    </XCUIElementTypeOther>
    <XCUIElementTypeOther id="carousel" scrollable="true" x="0" y="650" width="390" height="120" contentWidth="1200"/>
    <XCUIElementTypeOther id="footer" x="0" y="800" width="390" height="44">
      <XCUIElementTypeOther id="footer-probe" testID="footer" x="0" y="800" width="0" height="0"/>
    </XCUIElementTypeOther>
  </XCUIElementTypeWindow>
</AppiumAUT>`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.xml")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	root, err := LoadFile(writeSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, "window", root.ID)
	assert.Len(t, root.Probes(), 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.xml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<open>"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestResolveAll(t *testing.T) {
	root, err := LoadFile(writeSnapshot(t))
	require.NoError(t, err)

	got := ResolveAll(root, resolver.DefaultOptions())
	require.Len(t, got, 3)

	assert.Equal(t, "feed", got[0].TestID)
	assert.Equal(t, "feed-scroll", got[0].Target)
	assert.Equal(t, "siblings", got[0].Phase)

	assert.Equal(t, "carousel", got[1].TestID)
	assert.Equal(t, "carousel", got[1].Target)

	assert.Equal(t, "footer", got[2].TestID)
	assert.Empty(t, got[2].Target, "nothing scrollable overlaps the footer")
}

func TestMountAll(t *testing.T) {
	root, err := LoadFile(writeSnapshot(t))
	require.NoError(t, err)

	loop := mainloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	<-loop.Started()

	opts := introspect.DefaultOptions()
	opts.RetryDelay = time.Millisecond
	reg := registry.New()
	intro := introspect.New(loop, reg, opts)

	h := NewStatic(root, intro)
	assert.Same(t, root, h.Root())

	n, err := h.MountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	intro.Wait()

	assert.Equal(t, []string{"carousel", "feed", "footer"}, reg.ListIDs())

	feed, ok := reg.Get("feed")
	require.True(t, ok)
	assert.True(t, feed.Resolved())
	assert.True(t, feed.Handlers.Scrollable)

	footer, ok := reg.Get("footer")
	require.True(t, ok)
	assert.False(t, footer.Resolved())

	feed.Handlers.OnTap()
	feed.Handlers.OnLongPress(750 * time.Millisecond)
	footer.Handlers.OnText("hi")

	events := h.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "feed", events[0].TestID)
	assert.Equal(t, "tap", events[0].Action)
	assert.False(t, events[0].At.IsZero())
	assert.Equal(t, "750ms", events[1].Detail)
	assert.Equal(t, "footer", events[2].TestID)
	assert.Equal(t, "hi", events[2].Detail)
}

func TestMountAll_CollectsOnMainLoop(t *testing.T) {
	root, err := LoadFile(writeSnapshot(t))
	require.NoError(t, err)

	loop := mainloop.New()
	loop.Stop()
	reg := registry.New()
	h := NewStatic(root, introspect.New(loop, reg, introspect.DefaultOptions()))

	n, err := h.MountAll(context.Background())
	assert.ErrorIs(t, err, core.ErrLoopStopped)
	assert.Zero(t, n)
	assert.Zero(t, reg.Len(), "nothing is mounted without the main loop")
}
