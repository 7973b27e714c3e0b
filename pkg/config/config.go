// Package config handles configuration for agent-bridge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/agent-bridge/pkg/core"
)

// Defaults
const (
	DefaultListen            = "127.0.0.1:8700"
	DefaultPath              = "/agent"
	DefaultLogLevel          = "info"
	DefaultLogBuffer         = 500
	DefaultRetryDelay        = 100 * time.Millisecond
	DefaultMaxRetries        = 2
	DefaultLargeAreaFraction = 0.9
	DefaultLargeAreaLimit    = 300000.0
	DefaultDedupeTTL         = 30 * time.Second
)

// Config represents the bridge configuration (config.yaml or config.toml).
type Config struct {
	// Server settings
	Listen string `yaml:"listen" toml:"listen"` // host:port for the agent WebSocket
	Path   string `yaml:"path" toml:"path"`     // HTTP path of the WebSocket endpoint
	Token  string `yaml:"token" toml:"token"`   // Bearer token; empty disables auth

	// Logging
	LogFile   string `yaml:"logFile" toml:"logFile"`
	LogLevel  string `yaml:"logLevel" toml:"logLevel"`
	LogBuffer int    `yaml:"logBuffer" toml:"logBuffer"` // Entries kept for the logs command

	Resolve ResolveConfig `yaml:"resolve" toml:"resolve"`

	// Commands
	DedupeTTL time.Duration `yaml:"dedupeTTL" toml:"dedupeTTL"` // Replay window for repeated command ids
	Journal   string        `yaml:"journal" toml:"journal"`     // SQLite path; "off" disables

	Device core.DeviceInfo `yaml:"device" toml:"device"`
}

// ResolveConfig tunes scroll target resolution.
type ResolveConfig struct {
	RetryDelay        time.Duration `yaml:"retryDelay" toml:"retryDelay"`
	MaxRetries        int           `yaml:"maxRetries" toml:"maxRetries"`
	LargeAreaFraction float64       `yaml:"largeAreaFraction" toml:"largeAreaFraction"`
	LargeAreaLimit    float64       `yaml:"largeAreaLimit" toml:"largeAreaLimit"`
}

// Defaults returns a Config with every field set to its default.
func Defaults() *Config {
	return &Config{
		Listen:    DefaultListen,
		Path:      DefaultPath,
		LogLevel:  DefaultLogLevel,
		LogBuffer: DefaultLogBuffer,
		Resolve: ResolveConfig{
			RetryDelay:        DefaultRetryDelay,
			MaxRetries:        DefaultMaxRetries,
			LargeAreaFraction: DefaultLargeAreaFraction,
			LargeAreaLimit:    DefaultLargeAreaLimit,
		},
		DedupeTTL: DefaultDedupeTTL,
		Journal:   GetJournalPath(),
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	var problems []string
	if c.Listen == "" {
		problems = append(problems, "listen is empty")
	}
	if !strings.HasPrefix(c.Path, "/") {
		problems = append(problems, fmt.Sprintf("path %q must start with /", c.Path))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown logLevel %q", c.LogLevel))
	}
	if c.LogBuffer <= 0 {
		problems = append(problems, "logBuffer must be positive")
	}
	if c.Resolve.RetryDelay < 0 {
		problems = append(problems, "resolve.retryDelay must not be negative")
	}
	if c.Resolve.MaxRetries < 0 {
		problems = append(problems, "resolve.maxRetries must not be negative")
	}
	if c.Resolve.LargeAreaFraction <= 0 || c.Resolve.LargeAreaFraction > 1 {
		problems = append(problems, "resolve.largeAreaFraction must be in (0, 1]")
	}
	if c.Resolve.LargeAreaLimit <= 0 {
		problems = append(problems, "resolve.largeAreaLimit must be positive")
	}
	if c.DedupeTTL < 0 {
		problems = append(problems, "dedupeTTL must not be negative")
	}

	if len(problems) > 0 {
		return core.ErrInvalidConfig.WithMessage(strings.Join(problems, "; "))
	}
	return nil
}

// JournalEnabled reports whether command journaling is on.
func (c *Config) JournalEnabled() bool {
	return c.Journal != "" && c.Journal != "off"
}

// Load loads configuration from a file. The format is picked by extension;
// fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml, config.yml or config.toml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, return defaults
	return Defaults(), nil
}
