// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/version"
)

const redacted = "***"

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and print configuration",
	}
	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigValidateCmd(opts),
		newConfigShowCmd(opts),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file holding the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteFile(path, config.Defaults(), force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.resolveConfigPath()
			if _, err := config.NewLoader(path, version.Short()).Load(); err != nil {
				return fmt.Errorf("configuration error in %s: %w", describePath(path), err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", describePath(path))
			return err
		},
	}
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (defaults, file, environment)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewLoader(opts.resolveConfigPath(), version.Short()).Load()
			if err != nil {
				return err
			}
			if cfg.Assets.Redis.Password != "" {
				cfg.Assets.Redis.Password = redacted
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}

func describePath(path string) string {
	if path == "" {
		return "environment configuration"
	}
	return path
}
