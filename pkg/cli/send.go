package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/agent-bridge/pkg/agent"
	"github.com/devicelab-dev/agent-bridge/pkg/config"
	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/transport"
)

var sendCommand = &cli.Command{
	Name:  "send",
	Usage: "Send one command to a running bridge and print the response",
	Description: `Connect to the agent endpoint, send a single command and print the
JSON response. Exits with an error when the response status is error.

Examples:
  agent-bridge send --action ping
  agent-bridge send --action tap --test-id login
  agent-bridge send --action scroll --test-id feed --direction down --amount 300
  agent-bridge send --action swipe --test-id feed --direction up --velocity fast`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Usage:   "Agent endpoint",
			Value:   "ws://" + config.DefaultListen + config.DefaultPath,
			EnvVars: []string{"AGENT_BRIDGE_URL"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Token for the agent endpoint",
			EnvVars: []string{"AGENT_BRIDGE_TOKEN"},
		},
		&cli.StringFlag{
			Name:     "action",
			Aliases:  []string{"a"},
			Usage:    "Action (ping, tap, longPress, inputText, scroll, swipe, hierarchy, logs, deviceInfo, list)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "test-id",
			Usage: "Target element",
		},
		&cli.StringFlag{
			Name:  "value",
			Usage: "Text for inputText",
		},
		&cli.StringFlag{
			Name:  "direction",
			Usage: "Scroll or swipe direction (up, down, left, right)",
		},
		&cli.Float64Flag{
			Name:  "amount",
			Usage: "Scroll distance in points, long press duration in milliseconds, or logs limit",
		},
		&cli.StringFlag{
			Name:  "velocity",
			Usage: "Swipe velocity (slow, medium, fast)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Time to wait for the response",
			Value: 10 * time.Second,
		},
	},
	Action: runSend,
}

func runSend(c *cli.Context) error {
	cmd := agent.Command{
		Action:    c.String("action"),
		TestID:    c.String("test-id"),
		Value:     c.String("value"),
		Direction: c.String("direction"),
		Velocity:  c.String("velocity"),
	}
	if c.IsSet("amount") {
		amount := c.Float64("amount")
		cmd.Amount = &amount
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	client, err := transport.Dial(ctx, c.String("url"), c.String("token"))
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Send(ctx, cmd)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(c.App.Writer, string(data)); err != nil {
		return err
	}

	if resp.Status == core.StatusError {
		return fmt.Errorf("%s failed: %s", cmd.Action, resp.Error)
	}
	return nil
}
