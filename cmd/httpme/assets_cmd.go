// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/httpme/httpme/internal/assets"
	"github.com/httpme/httpme/internal/config"
	"github.com/httpme/httpme/internal/version"
)

// errVolatileBackend rejects writes that would vanish with the process.
var errVolatileBackend = errors.New("the memory asset backend does not persist; configure assets.backend")

func newAssetsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Read and write the configured asset store",
	}
	cmd.AddCommand(
		newAssetsPutCmd(opts),
		newAssetsGetCmd(opts),
		newAssetsListCmd(opts),
	)
	return cmd
}

// withStore opens the store the effective configuration names.
func withStore(ctx context.Context, opts *rootOptions, persistentOnly bool, fn func(assets.Store) error) (err error) {
	cfg, err := config.NewLoader(opts.resolveConfigPath(), version.Short()).Load()
	if err != nil {
		return err
	}
	storeCfg := cfg.AssetStore()
	if persistentOnly && (storeCfg.Backend == "" || strings.EqualFold(storeCfg.Backend, assets.BackendMemory)) {
		return errVolatileBackend
	}
	store, err := assets.Open(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, store.Close()) }()
	return fn(store)
}

func newAssetsPutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> [file]",
		Short: "Store a file (or stdin) under key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := assets.NormalizeKey(args[0])
			if err != nil {
				return err
			}
			var body []byte
			if len(args) == 2 && args[1] != "-" {
				body, err = os.ReadFile(args[1])
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read asset body: %w", err)
			}
			return withStore(cmd.Context(), opts, true, func(s assets.Store) error {
				if err := s.Put(cmd.Context(), key, body); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%d bytes)\n", key, len(body))
				return err
			})
		},
	}
}

func newAssetsGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Write the value stored under key to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := assets.NormalizeKey(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), opts, false, func(s assets.Store) error {
				body, err := s.Get(cmd.Context(), key)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(body)
				return err
			})
		},
	}
}

func newAssetsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, false, func(s assets.Store) error {
				keys, err := s.Keys(cmd.Context())
				if err != nil {
					return err
				}
				for _, k := range keys {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), k); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
