package device

import (
	"testing"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

type staticTree struct {
	root *viewtree.Node
}

func (s staticTree) Root() *viewtree.Node { return s.root }

func TestDeviceInfo_ScreenFromRoot(t *testing.T) {
	tree := staticTree{root: viewtree.NewNode("window", core.NewRect(0, 0, 390, 844))}
	p := NewProvider(core.DeviceInfo{Platform: "ios", DeviceName: "iPhone 15"}, tree)

	info := p.DeviceInfo()
	if info.ScreenWidth != 390 || info.ScreenHeight != 844 {
		t.Errorf("screen = %vx%v, want 390x844", info.ScreenWidth, info.ScreenHeight)
	}
	if info.Platform != "ios" {
		t.Errorf("Platform = %q, want %q", info.Platform, "ios")
	}
	if info.DeviceName != "iPhone 15" {
		t.Errorf("DeviceName = %q, want %q", info.DeviceName, "iPhone 15")
	}
	if info.ScreenScale != 1 {
		t.Errorf("ScreenScale = %v, want 1", info.ScreenScale)
	}
}

func TestDeviceInfo_ConfiguredScreenWins(t *testing.T) {
	tree := staticTree{root: viewtree.NewNode("window", core.NewRect(0, 0, 390, 844))}
	p := NewProvider(core.DeviceInfo{ScreenWidth: 1170, ScreenHeight: 2532, ScreenScale: 3}, tree)

	info := p.DeviceInfo()
	if info.ScreenWidth != 1170 || info.ScreenHeight != 2532 {
		t.Errorf("screen = %vx%v, want 1170x2532", info.ScreenWidth, info.ScreenHeight)
	}
	if info.ScreenScale != 3 {
		t.Errorf("ScreenScale = %v, want 3", info.ScreenScale)
	}
}

func TestDeviceInfo_StableGeneratedID(t *testing.T) {
	p := NewProvider(core.DeviceInfo{}, nil)

	first := p.DeviceInfo().DeviceID
	if first == "" {
		t.Fatal("DeviceID not generated")
	}
	if second := p.DeviceInfo().DeviceID; second != first {
		t.Errorf("DeviceID changed: %q then %q", first, second)
	}
}

func TestDeviceInfo_NoRoot(t *testing.T) {
	p := NewProvider(core.DeviceInfo{DeviceID: "abc"}, staticTree{})

	info := p.DeviceInfo()
	if info.DeviceID != "abc" {
		t.Errorf("DeviceID = %q, want %q", info.DeviceID, "abc")
	}
	if info.ScreenWidth != 0 {
		t.Errorf("ScreenWidth = %v, want 0", info.ScreenWidth)
	}
}
