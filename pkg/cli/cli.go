// Package cli provides the command-line interface for agent-bridge.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/agent-bridge/pkg/config"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config-dir",
		Aliases: []string{"c"},
		Usage:   "Directory containing config.yaml, config.yml or config.toml",
		Value:   ".",
		EnvVars: []string{"AGENT_BRIDGE_CONFIG_DIR"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write logs to this file",
		EnvVars: []string{"AGENT_BRIDGE_LOG_FILE"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{"AGENT_BRIDGE_LOG_LEVEL"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
		EnvVars: []string{"AGENT_BRIDGE_VERBOSE"},
	},
}

// newApp builds the application. Split from Execute for tests.
func newApp() *cli.App {
	return &cli.App{
		Name:    "agent-bridge",
		Usage:   "Let external agents drive UI elements by testID",
		Version: Version,
		Description: `agent-bridge serves a view tree to automation agents over WebSocket.
Elements carrying a testID are bound to their scroll containers, so agents
can tap, type, scroll and swipe them without coordinates.

Examples:
  agent-bridge serve --tree screen.xml
  agent-bridge resolve --tree screen.xml --test-id feed
  agent-bridge send --action scroll --test-id feed --direction down`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			serveCommand,
			resolveCommand,
			hierarchyCommand,
			sendCommand,
			journalCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config directory and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadFromDir(c.String("config-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}
