package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/agent-bridge/pkg/agent"
	"github.com/devicelab-dev/agent-bridge/pkg/config"
	"github.com/devicelab-dev/agent-bridge/pkg/device"
	"github.com/devicelab-dev/agent-bridge/pkg/host"
	"github.com/devicelab-dev/agent-bridge/pkg/introspect"
	"github.com/devicelab-dev/agent-bridge/pkg/journal"
	"github.com/devicelab-dev/agent-bridge/pkg/logger"
	"github.com/devicelab-dev/agent-bridge/pkg/mainloop"
	"github.com/devicelab-dev/agent-bridge/pkg/registry"
	"github.com/devicelab-dev/agent-bridge/pkg/resolver"
	"github.com/devicelab-dev/agent-bridge/pkg/transport"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Serve a view tree snapshot to agents over WebSocket",
	Description: `Load a view tree snapshot, bind every element that carries a testID to
its scroll container, and accept agent commands on the WebSocket endpoint.

Examples:
  agent-bridge serve --tree screen.xml
  agent-bridge serve --tree screen.xml --listen 0.0.0.0:8700 --token s3cret
  agent-bridge serve --tree screen.xml --journal off`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "tree",
			Aliases:  []string{"t"},
			Usage:    "View tree snapshot (XML)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "Address of the agent endpoint (host:port)",
			EnvVars: []string{"AGENT_BRIDGE_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Token agents must present; empty disables auth",
			EnvVars: []string{"AGENT_BRIDGE_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "journal",
			Usage:   "Command journal database path, or \"off\"",
			EnvVars: []string{"AGENT_BRIDGE_JOURNAL"},
		},
		&cli.DurationFlag{
			Name:  "journal-keep",
			Usage: "Drop journal entries older than this at startup (0 keeps all)",
		},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("token") {
		cfg.Token = c.String("token")
	}
	if c.IsSet("journal") {
		cfg.Journal = c.String("journal")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, err := host.LoadFile(c.String("tree"))
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		return err
	}
	defer logger.Close()
	logger.SetRingSize(cfg.LogBuffer)
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := mainloop.New()
	intro := introspect.New(loop, registry.New(), introspectOptions(cfg))
	h := host.NewStatic(root, intro)

	opts := agent.Options{
		DedupeTTL: cfg.DedupeTTL,
		Device:    device.NewProvider(cfg.Device, h),
	}
	if cfg.JournalEnabled() {
		store, err := openJournal(ctx, cfg.Journal, c.Duration("journal-keep"))
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Recorder = store
	}

	disp := agent.NewDispatcher(loop, intro, h, opts)
	srv := transport.NewServer(transport.ServerConfig{
		Addr:  cfg.Listen,
		Path:  cfg.Path,
		Token: cfg.Token,
	}, disp)

	logger.Info("=== agent-bridge %s starting ===", Version)
	logger.Info("Tree: %s", c.String("tree"))
	fmt.Fprintf(c.App.Writer, "Serving %s on ws://%s%s\n", c.String("tree"), cfg.Listen, cfg.Path)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := loop.Run(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-loop.Started():
		case <-gctx.Done():
			return nil
		}
		n, err := h.MountAll(gctx)
		if err != nil {
			return err
		}
		logger.Info("Mounted %d elements", n)
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	err = g.Wait()
	intro.Wait()
	logger.Info("=== agent-bridge stopped ===")
	return err
}

func introspectOptions(cfg *config.Config) introspect.Options {
	return introspect.Options{
		RetryDelay: cfg.Resolve.RetryDelay,
		MaxRetries: cfg.Resolve.MaxRetries,
		Resolver:   resolverOptions(cfg),
	}
}

func resolverOptions(cfg *config.Config) resolver.Options {
	return resolver.Options{
		LargeAreaFraction: cfg.Resolve.LargeAreaFraction,
		LargeAreaLimit:    cfg.Resolve.LargeAreaLimit,
	}
}

func openJournal(ctx context.Context, path string, keep time.Duration) (*journal.Store, error) {
	store, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	if keep > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-keep))
		if err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Pruned %d journal entries older than %v", n, keep)
	}
	return store, nil
}
