package viewtree

import (
	"testing"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// Sample snapshot: a feed list with a probe marker next to it, and a
// horizontal carousel with its own probe.
const sampleSource = `<?xml version="1.0" encoding="UTF-8"?>
<AppiumAUT>
  <XCUIElementTypeApplication type="XCUIElementTypeApplication" name="Demo" x="0" y="0" width="390" height="844">
    <XCUIElementTypeWindow id="window" x="0" y="0" width="390" height="844">
      <XCUIElementTypeOther id="host" x="0" y="0" width="390" height="844">
        <XCUIElementTypeOther id="feed-marker-host" x="0" y="100" width="390" height="600">
          <XCUIElementTypeOther id="feed-probe" testID="feed" x="0" y="100" width="0" height="0"/>
        </XCUIElementTypeOther>
        <XCUIElementTypeScrollView id="feed-scroll" x="0" y="100" width="390" height="600" contentHeight="2400" offsetY="40">
          <XCUIElementTypeStaticText label="Row 1" x="0" y="100" width="390" height="44"/>
        </XCUIElementTypeScrollView>
        <XCUIElementTypeOther id="carousel" scrollable="true" x="0" y="700" width="390" height="120">
          <XCUIElementTypeButton label="Card 1" x="0" y="700" width="200" height="120"/>
          <XCUIElementTypeButton label="Card 2" x="210" y="700" width="200" height="120"/>
          <XCUIElementTypeButton label="Card 3" x="420" y="700" width="200" height="120"/>
        </XCUIElementTypeOther>
        <XCUIElementTypeTable id="not-scrolling" scrollable="false" x="0" y="0" width="390" height="50"/>
      </XCUIElementTypeOther>
    </XCUIElementTypeWindow>
  </XCUIElementTypeApplication>
</AppiumAUT>`

func TestParseSource(t *testing.T) {
	root, err := ParseSource(sampleSource)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}

	if root.Type != "XCUIElementTypeApplication" {
		t.Errorf("root.Type = %q, want XCUIElementTypeApplication", root.Type)
	}
	if root.Frame != core.NewRect(0, 0, 390, 844) {
		t.Errorf("root.Frame = %+v", root.Frame)
	}

	scroll := root.Find("feed-scroll")
	if scroll == nil {
		t.Fatal("feed-scroll not found")
	}
	if !scroll.Scrollable {
		t.Error("ScrollView type should default to scrollable")
	}
	if scroll.ContentSize.Height != 2400 {
		t.Errorf("ContentSize.Height = %v, want 2400", scroll.ContentSize.Height)
	}
	if got := scroll.ContentOffset(); got.Y != 40 {
		t.Errorf("ContentOffset().Y = %v, want 40", got.Y)
	}
	if scroll.Parent == nil || scroll.Parent.ID != "host" {
		t.Error("feed-scroll parent should be host")
	}
}

func TestParseSource_ExplicitScrollable(t *testing.T) {
	root, err := ParseSource(sampleSource)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}

	carousel := root.Find("carousel")
	if carousel == nil || !carousel.Scrollable {
		t.Fatal("carousel should be scrollable")
	}
	// Content size derived from children: rightmost card ends at 620
	if carousel.ContentSize.Width != 620 {
		t.Errorf("carousel ContentSize.Width = %v, want 620", carousel.ContentSize.Width)
	}

	table := root.Find("not-scrolling")
	if table == nil || table.Scrollable {
		t.Error("scrollable=\"false\" should override the table type")
	}
}

func TestParseSource_Probes(t *testing.T) {
	root, err := ParseSource(sampleSource)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}

	probes := root.Probes()
	if len(probes) != 1 {
		t.Fatalf("len(Probes()) = %d, want 1", len(probes))
	}
	if probes[0].TestID != "feed" || probes[0].Parent.ID != "feed-marker-host" {
		t.Errorf("unexpected probe %+v", probes[0])
	}
}

func TestParseSource_GeneratedIDs(t *testing.T) {
	root, err := ParseSource(`<Other x="0" y="0" width="10" height="10"><Other/><Other/></Other>`)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	seen := map[string]bool{}
	root.Walk(func(n *Node) bool {
		if n.ID == "" {
			t.Error("node without ID")
		}
		if seen[n.ID] {
			t.Errorf("duplicate ID %q", n.ID)
		}
		seen[n.ID] = true
		return true
	})
	if len(seen) != 3 {
		t.Errorf("visited %d nodes, want 3", len(seen))
	}
}

func TestParseSource_MultipleRoots(t *testing.T) {
	root, err := ParseSource(`<AppiumAUT><A x="0" y="0" width="100" height="100"/><B x="50" y="50" width="100" height="200"/></AppiumAUT>`)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	if root.ID != "root" || len(root.Children) != 2 {
		t.Fatalf("expected synthetic root with 2 children, got %q with %d", root.ID, len(root.Children))
	}
	if root.Frame != core.NewRect(0, 0, 150, 250) {
		t.Errorf("root.Frame = %+v, want {0 0 150 250}", root.Frame)
	}
}

func TestParseSource_InvalidXML(t *testing.T) {
	_, err := ParseSource("<Other><unclosed")
	if err == nil {
		t.Error("Expected error for invalid XML")
	}
}

func TestParseSource_Empty(t *testing.T) {
	_, err := ParseSource("")
	if err == nil {
		t.Error("Expected error for empty source")
	}
}
