package core

import (
	"time"
)

// ElementInfo is the serialized form of a view-tree node, as sent to the agent
// by the hierarchy command.
type ElementInfo struct {
	ID            string         `json:"id"`
	Type          string         `json:"type,omitempty"`
	Label         string         `json:"label,omitempty"`
	TestID        string         `json:"testID,omitempty"`
	Frame         Rect           `json:"frame"`
	Scrollable    bool           `json:"scrollable,omitempty"`
	ContentSize   *Size          `json:"contentSize,omitempty"`   // Scrollables only
	ContentOffset *Point         `json:"contentOffset,omitempty"` // Scrollables only
	Children      []*ElementInfo `json:"children,omitempty"`
	Truncated     bool           `json:"truncated,omitempty"` // Children omitted by depth limit
}

// DeviceInfo contains device and app details reported by the deviceInfo command.
// Screen dimensions are in points.
type DeviceInfo struct {
	Platform     string  `json:"platform" yaml:"platform" toml:"platform"`
	OSVersion    string  `json:"osVersion" yaml:"osVersion" toml:"osVersion"`
	DeviceName   string  `json:"deviceName" yaml:"deviceName" toml:"deviceName"`
	DeviceID     string  `json:"deviceId" yaml:"deviceId" toml:"deviceId"`
	IsSimulator  bool    `json:"isSimulator" yaml:"isSimulator" toml:"isSimulator"`
	ScreenWidth  float64 `json:"screenWidth,omitempty" yaml:"screenWidth" toml:"screenWidth"`
	ScreenHeight float64 `json:"screenHeight,omitempty" yaml:"screenHeight" toml:"screenHeight"`
	ScreenScale  float64 `json:"screenScale,omitempty" yaml:"screenScale" toml:"screenScale"`
	AppID        string  `json:"appId,omitempty" yaml:"appId" toml:"appId"`
	AppVersion   string  `json:"appVersion,omitempty" yaml:"appVersion" toml:"appVersion"`
}

// LogEntry represents a single log message captured by the log buffer
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"` // debug, info, warn, error
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}
