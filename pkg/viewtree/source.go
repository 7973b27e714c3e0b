package viewtree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// ParseSource parses a view-tree snapshot into a tree of Nodes.
// The format follows WebDriverAgent page source: each element carries
// type, name, label and x, y, width, height attributes. Additional attributes:
//   - id: opaque identity (generated from tree position when absent)
//   - testID (or identifier): agent binding identifier
//   - scrollable: "true" or "false"; scroll-view types default to true
//   - contentWidth, contentHeight: scrollable content size (defaults to frame size)
//   - offsetX, offsetY: initial scroll position
//
// A wrapping AppiumAUT element is skipped. Multiple top-level elements are
// placed under a synthetic root spanning all of them.
func ParseSource(data string) (*Node, error) {
	decoder := xml.NewDecoder(strings.NewReader(data))

	var roots []*Node
	seq := 0
	var parseElement func() (*Node, error)

	parseElement = func() (*Node, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == "AppiumAUT" {
					// Wrapper - parse children as roots
					for {
						child, err := parseElement()
						if err != nil || child == nil {
							break
						}
						roots = append(roots, child)
					}
					continue
				}

				seq++
				node, scrollAttr, content := newNodeFromElement(t, seq)

				for {
					child, err := parseElement()
					if err != nil {
						return nil, err
					}
					if child == nil {
						break
					}
					node.Add(child)
				}

				finishScrollable(node, scrollAttr, content)
				return node, nil

			case xml.EndElement:
				return nil, nil
			}
		}
	}

	var parseErr error
	for {
		node, err := parseElement()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				parseErr = err
			}
			break
		}
		if node != nil {
			roots = append(roots, node)
		}
	}

	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse view tree: %w", parseErr)
	}

	switch len(roots) {
	case 0:
		return nil, fmt.Errorf("no elements found in view tree")
	case 1:
		return roots[0], nil
	}

	root := NewNode("root", unionFrames(roots))
	root.Type = "Root"
	root.Add(roots...)
	return root, nil
}

// scrollAttr records an explicit scrollable attribute, if any.
type scrollAttr struct {
	set   bool
	value bool
}

// pendingContent carries content attributes until children are parsed.
type pendingContent struct {
	width, height    float64
	offsetX, offsetY float64
}

func newNodeFromElement(t xml.StartElement, seq int) (*Node, scrollAttr, pendingContent) {
	node := &Node{Type: t.Name.Local}
	var sa scrollAttr
	var pc pendingContent

	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "id":
			node.ID = attr.Value
		case "type":
			node.Type = attr.Value
		case "name", "label":
			if node.Label == "" || attr.Name.Local == "label" {
				node.Label = attr.Value
			}
		case "testID", "identifier":
			node.TestID = attr.Value
		case "scrollable":
			sa = scrollAttr{set: true, value: attr.Value == "true"}
		case "x":
			node.Frame.X = parseFloat(attr.Value)
		case "y":
			node.Frame.Y = parseFloat(attr.Value)
		case "width":
			node.Frame.Width = parseFloat(attr.Value)
		case "height":
			node.Frame.Height = parseFloat(attr.Value)
		case "contentWidth":
			pc.width = parseFloat(attr.Value)
		case "contentHeight":
			pc.height = parseFloat(attr.Value)
		case "offsetX":
			pc.offsetX = parseFloat(attr.Value)
		case "offsetY":
			pc.offsetY = parseFloat(attr.Value)
		}
	}

	if node.ID == "" {
		node.ID = "n" + strconv.Itoa(seq)
	}
	return node, sa, pc
}

func finishScrollable(node *Node, sa scrollAttr, pc pendingContent) {
	if sa.set {
		node.Scrollable = sa.value
	} else {
		node.Scrollable = isScrollType(node.Type)
	}
	if !node.Scrollable {
		return
	}

	node.ContentSize = core.Size{Width: pc.width, Height: pc.height}
	if node.ContentSize.Width == 0 && node.ContentSize.Height == 0 {
		node.ContentSize = contentExtent(node)
	}
	node.SetContentOffset(core.Point{X: pc.offsetX, Y: pc.offsetY})
}

// contentExtent estimates content size from the children's frames when the
// snapshot does not state it.
func contentExtent(node *Node) core.Size {
	size := node.Frame.Size()
	for _, c := range node.Children {
		size.Width = max(size.Width, c.Frame.Right()-node.Frame.X)
		size.Height = max(size.Height, c.Frame.Bottom()-node.Frame.Y)
	}
	return size
}

// isScrollType checks if an element type is a scroll container.
func isScrollType(elemType string) bool {
	switch elemType {
	case "XCUIElementTypeScrollView",
		"XCUIElementTypeTable",
		"XCUIElementTypeCollectionView",
		"XCUIElementTypeWebView",
		"XCUIElementTypeTextView",
		"UIScrollView",
		"UITableView",
		"UICollectionView",
		"ScrollView":
		return true
	default:
		return false
	}
}

func unionFrames(nodes []*Node) core.Rect {
	var out core.Rect
	for i, n := range nodes {
		if i == 0 {
			out = n.Frame
			continue
		}
		x := min(out.X, n.Frame.X)
		y := min(out.Y, n.Frame.Y)
		right := max(out.Right(), n.Frame.Right())
		bottom := max(out.Bottom(), n.Frame.Bottom())
		out = core.Rect{X: x, Y: y, Width: right - x, Height: bottom - y}
	}
	return out
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
