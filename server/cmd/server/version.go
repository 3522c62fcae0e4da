package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// .env files are irrelevant here.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "careguide-server version %s\n", version)
			fmt.Fprintf(a.stdout, "commit: %s\n", commit)
			fmt.Fprintf(a.stdout, "built: %s\n", date)
			fmt.Fprintf(a.stdout, "go version: %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
