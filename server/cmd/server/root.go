package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/careguide/careguide/server/internal/catalog"
	"github.com/careguide/careguide/server/internal/config"
	"github.com/careguide/careguide/server/internal/lookup"
	"github.com/careguide/careguide/server/internal/metrics"
	"github.com/careguide/careguide/server/internal/upstream"
)

// envFiles are loaded in order. godotenv never overrides a variable that is
// already set, so the real environment wins over .env.local, which wins over .env.
var envFiles = []string{".env.local", ".env"}

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	v          *viper.Viper
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.NewViper(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "careguide-server",
		Short: "Animal care guideline server",
		Long: `careguide-server serves the CareGuide web front-end and a small JSON API
for animal care guidelines.

When GUIDELINES_API_BASE is set, lookups are forwarded to that external API;
otherwise, or whenever the API fails, a bundled sample dataset answers.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadEnv,
		RunE:              a.runServe,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to YAML config file")
	pf.Int("port", config.DefaultPort, "HTTP port (env PORT)")
	pf.String("public-dir", "", "serve the front-end from this directory instead of the built-in copy")
	pf.String("log-level", "info", "log level: debug|info|warn|error")
	pf.Bool("watch", false, "reload upstream settings when the config file changes")

	mustBind(a.v, config.KeyPort, root, "port")
	mustBind(a.v, config.KeyPublicDir, root, "public-dir")
	mustBind(a.v, config.KeyLogLevel, root, "log-level")
	mustBind(a.v, config.KeyWatch, root, "watch")

	root.AddCommand(a.serveCmd(), a.queryCmd(), a.versionCmd())
	return root
}

func mustBind(v *viper.Viper, key string, cmd *cobra.Command, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// loadEnv loads the .env files that exist. Missing files are not an error.
func (a *app) loadEnv(_ *cobra.Command, _ []string) error {
	for _, name := range envFiles {
		err := godotenv.Load(name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// newLogger builds the process logger for cfg, writing to w.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// buildService loads the dataset and wires the lookup service for cfg.
func buildService(cmd *cobra.Command, cfg *config.Config, m *metrics.Metrics) (*lookup.Service, *catalog.Catalog, error) {
	cat, err := catalog.Load(cmd.Context(), cfg.Dataset)
	if err != nil {
		return nil, nil, err
	}
	svc := lookup.New(cat, nil, m)
	if err := applyUpstream(svc, cfg.Upstream); err != nil {
		return nil, nil, err
	}
	return svc, cat, nil
}

// applyUpstream installs the client described by u, or clears the upstream
// when u has no base URL.
func applyUpstream(svc *lookup.Service, u config.UpstreamConfig) error {
	if !u.Enabled() {
		svc.SetUpstream(nil)
		return nil
	}
	c, err := upstream.New(u)
	if err != nil {
		return err
	}
	svc.SetUpstream(c)
	return nil
}
