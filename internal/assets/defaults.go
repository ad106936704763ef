// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package assets

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed all:defaults
var defaultFiles embed.FS

// Defaults returns the built-in assets: the API explorer page and the
// sample form.
func Defaults() fs.FS {
	sub, err := fs.Sub(defaultFiles, "defaults")
	if err != nil {
		panic(fmt.Sprintf("assets: embedded defaults: %v", err))
	}
	return sub
}

// SeedDefaults stores the built-in assets under every key that has no value
// yet, so assets written by an operator survive a restart.
func SeedDefaults(ctx context.Context, s Store) (int, error) {
	return SeedFS(ctx, missingOnly{s}, Defaults())
}

// missingOnly drops writes to keys that already hold a value.
type missingOnly struct{ Store }

func (m missingOnly) Put(ctx context.Context, key string, value []byte) error {
	_, err := m.Store.Get(ctx, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return m.Store.Put(ctx, key, value)
	default:
		return err
	}
}
