// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package assets provides the key/value store the static asset and form
// endpoints read from.
package assets

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/httpme/httpme/internal/metrics"
)

var (
	// ErrNotFound is returned when a key has no value.
	ErrNotFound = errors.New("assets: not found")
	// ErrInvalidKey is returned for empty or non-canonical keys.
	ErrInvalidKey = errors.New("assets: invalid key")
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Store is a flat key/value store of asset bodies.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	Path    string // badger directory or sqlite file
	Redis   RedisConfig
}

// Open returns the configured store wrapped with lookup metrics.
func Open(ctx context.Context, cfg Config) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	var (
		s   Store
		err error
	)
	switch backend {
	case "", BackendMemory:
		backend = BackendMemory
		s = NewMemoryStore()
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.Redis)
	case BackendBadger:
		s, err = OpenBadgerStore(cfg.Path)
	case BackendSQLite:
		s, err = OpenSQLiteStore(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("assets: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s asset store: %w", backend, err)
	}
	return Instrument(s, backend), nil
}

// NormalizeKey returns the canonical form of key: NFC, no leading slash, no
// dot segments. Keys that escape the root are rejected.
func NormalizeKey(key string) (string, error) {
	key = norm.NFC.String(strings.TrimSpace(key))
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// ContentType maps a key's extension to the media type the asset is served
// with.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".js":
		return "application/javascript"
	case ".css":
		return "text/css"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	}
	return "text/plain; charset=utf-8"
}

type instrumented struct {
	Store
	backend string
}

// Instrument counts Get outcomes for s under the backend label.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := i.Store.Get(ctx, key)
	switch {
	case err == nil:
		metrics.IncAssetLookup(i.backend, "hit")
	case errors.Is(err, ErrNotFound):
		metrics.IncAssetLookup(i.backend, "miss")
	default:
		metrics.IncAssetLookup(i.backend, "error")
	}
	return v, err
}
