// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/httpme/httpme/internal/daemon"
	"github.com/httpme/httpme/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Runs the service until SIGINT or SIGTERM.
SIGHUP and edits to the config file reload the runtime-tunable settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := daemon.SignalContext(cmd.Context())
			defer stop()
			return daemon.Run(ctx, daemon.Options{
				ConfigPath: opts.resolveConfigPath(),
				Version:    version.Short(),
				LogOutput:  cmd.OutOrStdout(),
			})
		},
	}
}
