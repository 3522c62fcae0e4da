package main

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/careguide/careguide/pkg/types"
	"github.com/careguide/careguide/server/internal/config"
)

func (a *app) queryCmd() *cobra.Command {
	var species, topic, search string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one guideline lookup and print the result as JSON",
		Example: `  careguide-server query --species dog --topic vaccination
  GUIDELINES_API_BASE=https://api.example.com careguide-server query --search heat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, a.v)
			if err != nil {
				return err
			}
			// Diagnostics go to stderr so stdout stays valid JSON.
			slog.SetDefault(newLogger(cfg.Log, a.stderr))

			svc, _, err := buildService(cmd, cfg, nil)
			if err != nil {
				return err
			}

			env := svc.Lookup(cmd.Context(), types.NewQuery(species, topic, search))
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(env)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "species, exact match (case-insensitive)")
	cmd.Flags().StringVar(&topic, "topic", "", "topic substring")
	cmd.Flags().StringVar(&search, "search", "", "free-text search over title, summary and actions")
	return cmd
}
