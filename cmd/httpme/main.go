// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command httpme is the HTTP test service with GRIP realtime bridging.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/httpme/httpme/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// resolveConfigPath prefers --config over HTTPME_CONFIG. Empty means
// defaults plus environment.
func (o *rootOptions) resolveConfigPath() string {
	if p := strings.TrimSpace(o.configPath); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(config.EnvConfigPath))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "httpme",
		Short:         "HTTP test service with GRIP realtime bridging",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to YAML config file (default $"+config.EnvConfigPath+")")

	root.AddCommand(
		newServeCmd(opts),
		newConfigCmd(opts),
		newAssetsCmd(opts),
		newVersionCmd(),
	)
	return root
}
