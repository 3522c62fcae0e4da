package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/careguide/careguide/server/internal/api"
	"github.com/careguide/careguide/server/internal/config"
	"github.com/careguide/careguide/server/internal/httpserver"
	"github.com/careguide/careguide/server/internal/lookup"
	"github.com/careguide/careguide/server/internal/metrics"
	"github.com/careguide/careguide/server/internal/static"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default command)",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath, a.v)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, a.stdout)
	slog.SetDefault(logger)
	slog.Info("careguide-server starting", "version", version, "config", a.configPath)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	svc, cat, err := buildService(cmd, cfg, m)
	if err != nil {
		slog.Error("startup failed", "err", err)
		return err
	}

	srv := httpserver.New(cfg, httpserver.Options{
		API:     api.New(svc),
		Static:  static.NewDir(cfg.Server.PublicDir),
		Metrics: m,
		Logger:  logger,
	})
	httpserver.LogStartup(logger, cfg, cat.Len())

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return srv.Run(ctx)
	})

	switch {
	case cfg.Watch && a.configPath != "":
		g.Go(func() error {
			return config.Watch(ctx, a.configPath, a.v, func(next *config.Config) {
				reloadUpstream(svc, next)
			})
		})
	case cfg.Watch:
		slog.Warn("watch requested without --config; nothing to watch")
	}

	if err := g.Wait(); err != nil {
		slog.Error("careguide-server stopped", "err", err)
		return err
	}
	slog.Info("careguide-server stopped")
	return nil
}

// reloadUpstream applies the upstream section of a reloaded config. Other
// sections need a restart.
func reloadUpstream(svc *lookup.Service, next *config.Config) {
	if err := applyUpstream(svc, next.Upstream); err != nil {
		slog.Warn("config: upstream reload rejected, keeping previous client", "err", err)
		return
	}
	slog.Info("config: upstream reloaded",
		"upstream_configured", svc.UpstreamConfigured(),
		"timeout", next.Upstream.Timeout,
	)
}
