// Package device reports details of the device the bridge runs on.
package device

import (
	"os"

	"github.com/google/uuid"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

// TreeSource supplies the current view tree.
type TreeSource interface {
	Root() *viewtree.Node
}

// Provider builds DeviceInfo from configured values, filling the gaps from
// the host and the view tree.
type Provider struct {
	base core.DeviceInfo
	tree TreeSource
}

// NewProvider creates a Provider. Unset identity fields are filled once here:
// the device ID gets a random UUID and the name falls back to the hostname.
func NewProvider(base core.DeviceInfo, tree TreeSource) *Provider {
	if base.DeviceID == "" {
		base.DeviceID = uuid.NewString()
	}
	if base.DeviceName == "" {
		if host, err := os.Hostname(); err == nil {
			base.DeviceName = host
		}
	}
	if base.ScreenScale == 0 {
		base.ScreenScale = 1
	}
	return &Provider{base: base, tree: tree}
}

// DeviceInfo returns the device details. Screen dimensions not set in config
// are taken from the root frame, so call it on the main loop.
func (p *Provider) DeviceInfo() core.DeviceInfo {
	info := p.base
	if info.ScreenWidth > 0 && info.ScreenHeight > 0 || p.tree == nil {
		return info
	}
	if root := p.tree.Root(); root != nil {
		if info.ScreenWidth == 0 {
			info.ScreenWidth = root.Frame.Width
		}
		if info.ScreenHeight == 0 {
			info.ScreenHeight = root.Frame.Height
		}
	}
	return info
}
