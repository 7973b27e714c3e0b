package viewtree

import (
	"encoding/json"
	"testing"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

func TestSerialize(t *testing.T) {
	root, _, _ := buildTree()

	info := Serialize(root, 0)
	if info.ID != "root" || len(info.Children) != 1 {
		t.Fatalf("unexpected root info %+v", info)
	}

	host := info.Children[0]
	if len(host.Children) != 2 {
		t.Fatalf("host children = %d, want 2", len(host.Children))
	}
	scroll := host.Children[1]
	if !scroll.Scrollable || scroll.ContentSize == nil || scroll.ContentSize.Height != 2000 {
		t.Errorf("scroll info = %+v", scroll)
	}
	if scroll.ContentOffset == nil {
		t.Error("scrollable should report contentOffset")
	}
	if host.Children[0].ContentSize != nil {
		t.Error("plain node should not report contentSize")
	}
}

func TestSerialize_DepthLimit(t *testing.T) {
	root, _, _ := buildTree()

	info := Serialize(root, 1)
	host := info.Children[0]
	if len(host.Children) != 0 || !host.Truncated {
		t.Errorf("depth-limited host = %+v, want truncated with no children", host)
	}
}

func TestSerialize_Nil(t *testing.T) {
	if Serialize(nil, 0) != nil {
		t.Error("Serialize(nil) should be nil")
	}
}

func TestMarshalHierarchy(t *testing.T) {
	root := NewNode("root", core.NewRect(0, 0, 10, 10))
	data, err := MarshalHierarchy(root, 0)
	if err != nil {
		t.Fatalf("MarshalHierarchy failed: %v", err)
	}

	var decoded core.ElementInfo
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.ID != "root" {
		t.Errorf("decoded.ID = %q, want root", decoded.ID)
	}
}
