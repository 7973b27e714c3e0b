package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/agent-bridge/pkg/journal"
)

var journalCommand = &cli.Command{
	Name:  "journal",
	Usage: "Print recently executed commands from the journal",
	Description: `Read the command journal written by serve.

Examples:
  agent-bridge journal
  agent-bridge journal --limit 50
  agent-bridge journal --test-id feed`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "journal",
			Usage:   "Command journal database path",
			EnvVars: []string{"AGENT_BRIDGE_JOURNAL"},
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Number of entries to print",
			Value: 20,
		},
		&cli.StringFlag{
			Name:  "test-id",
			Usage: "Only print commands that targeted this testID",
		},
	},
	Action: runJournal,
}

func runJournal(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("journal") {
		cfg.Journal = c.String("journal")
	}
	if !cfg.JournalEnabled() {
		return fmt.Errorf("journal is disabled")
	}

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return err
	}
	defer store.Close()

	var entries []journal.Entry
	if id := c.String("test-id"); id != "" {
		entries, err = store.ForTestID(c.Context, id, c.Int("limit"))
	} else {
		entries, err = store.Recent(c.Context, c.Int("limit"))
	}
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-10s %-12s %-6s %v",
			e.CreatedAt.Local().Format("15:04:05.000"), e.Action, e.TestID, e.Status, e.Duration)
		if e.Error != "" {
			line += "  " + e.Error
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
