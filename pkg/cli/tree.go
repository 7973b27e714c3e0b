package cli

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/agent-bridge/pkg/host"
	"github.com/devicelab-dev/agent-bridge/pkg/viewtree"
)

var resolveCommand = &cli.Command{
	Name:  "resolve",
	Usage: "Resolve the scroll container of every testID in a snapshot",
	Description: `Run scroll target resolution offline against a view tree snapshot and
print the result for each element as JSON. Elements are resolved in tree
order; a container claimed by one testID is skipped for later ones.

Examples:
  agent-bridge resolve --tree screen.xml
  agent-bridge resolve --tree screen.xml --test-id feed`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "tree",
			Aliases:  []string{"t"},
			Usage:    "View tree snapshot (XML)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "test-id",
			Usage: "Only print this testID",
		},
	},
	Action: runResolve,
}

var hierarchyCommand = &cli.Command{
	Name:  "hierarchy",
	Usage: "Print the view hierarchy of a snapshot",
	Description: `Print the view hierarchy of a snapshot as JSON, in the same shape the
hierarchy agent action returns.

Examples:
  agent-bridge hierarchy --tree screen.xml
  agent-bridge hierarchy --tree screen.xml --depth 3`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "tree",
			Aliases:  []string{"t"},
			Usage:    "View tree snapshot (XML)",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "depth",
			Usage: "Maximum depth to print",
			Value: viewtree.DefaultMaxDepth,
		},
	},
	Action: runHierarchy,
}

func runResolve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, err := host.LoadFile(c.String("tree"))
	if err != nil {
		return err
	}

	results := host.ResolveAll(root, resolverOptions(cfg))
	if id := c.String("test-id"); id != "" {
		filtered := results[:0]
		for _, r := range results {
			if r.TestID == id {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("no element with testID %q in %s", id, c.String("tree"))
		}
		results = filtered
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}

func runHierarchy(c *cli.Context) error {
	root, err := host.LoadFile(c.String("tree"))
	if err != nil {
		return err
	}

	data, err := viewtree.MarshalHierarchy(root, c.Int("depth"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
