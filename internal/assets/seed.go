// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Seed copies every regular file below dir into s. Each file is stored under
// its slash-separated relative path and, for files in subdirectories, also
// under its base name, since endpoints look assets up by the last path
// segment. It returns the number of files stored.
func Seed(ctx context.Context, s Store, dir string) (int, error) {
	return SeedFS(ctx, s, os.DirFS(dir))
}

// SeedFS is Seed over an fs.FS.
func SeedFS(ctx context.Context, s Store, fsys fs.FS) (int, error) {
	n := 0
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		key, err := NormalizeKey(filepath.ToSlash(p))
		if err != nil {
			return err
		}
		if err := s.Put(ctx, key, body); err != nil {
			return err
		}
		if base := path.Base(key); base != key {
			if err := s.Put(ctx, base, body); err != nil {
				return err
			}
		}
		n++
		return nil
	})
	return n, err
}
