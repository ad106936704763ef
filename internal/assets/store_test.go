// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package assets

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	mr := miniredis.RunT(t)

	out := map[string]Store{}

	out[BackendMemory] = NewMemoryStore()

	rs, err := NewRedisStore(ctx, RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	out[BackendRedis] = rs

	bs, err := OpenBadgerStore(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	out[BackendBadger] = bs

	ss, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "assets.db"))
	require.NoError(t, err)
	out[BackendSQLite] = ss

	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Ping(ctx))

			_, err := s.Get(ctx, "swagger.html")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "swagger.html", []byte("<html></html>")))
			require.NoError(t, s.Put(ctx, "static-assets/app.js", []byte("console.log(1)")))

			got, err := s.Get(ctx, "swagger.html")
			require.NoError(t, err)
			assert.Equal(t, "<html></html>", string(got))

			require.NoError(t, s.Put(ctx, "swagger.html", []byte("v2")))
			got, err = s.Get(ctx, "swagger.html")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(got))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"static-assets/app.js", "swagger.html"}, keys)

			require.NoError(t, s.Delete(ctx, "swagger.html"))
			_, err = s.Get(ctx, "swagger.html")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, s.Put(ctx, "", []byte("x")), ErrInvalidKey)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	src := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", src))
	src[0] = 'X'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	got[1] = 'Y'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)

	_, err = NewRedisStore(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestBadgerStore_InMemory(t *testing.T) {
	s, err := OpenBadgerStore("")
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "a", []byte("1")))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Backend: "SQLite", Path: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: "etcd"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: BackendSQLite})
	assert.Error(t, err)
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"swagger.html", "swagger.html", false},
		{"/static-assets/app.js", "static-assets/app.js", false},
		{"a/./b//c.css", "a/b/c.css", false},
		{"café.txt", "café.txt", false},
		{"", "", true},
		{"/", "", true},
		{"../etc/passwd", "", true},
		{"a/../../b", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeKey(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrInvalidKey, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/javascript", ContentType("app.js"))
	assert.Equal(t, "text/css", ContentType("site.CSS"))
	assert.Equal(t, "text/html; charset=utf-8", ContentType("swagger.html"))
	assert.Equal(t, "application/json", ContentType("data.json"))
	assert.Equal(t, "image/jpeg", ContentType("cat.jpg"))
	assert.Equal(t, "image/png", ContentType("logo.png"))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType("README"))
}

func TestSeedFS(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"static-assets/swagger.html": {Data: []byte("<html>")},
		"static-assets/app.js":       {Data: []byte("js")},
		"post":                       {Data: []byte("form")},
	}
	s := NewMemoryStore()
	n, err := SeedFS(ctx, s, fsys)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js", "post", "static-assets/app.js", "static-assets/swagger.html", "swagger.html"}, keys)
}

func TestSeedDefaults_KeepsExisting(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "post", []byte("custom form")))

	n, err := SeedDefaults(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	page, err := s.Get(ctx, "static-assets/swagger.html")
	require.NoError(t, err)
	assert.Contains(t, string(page), "/openapi.json")

	form, err := s.Get(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, "custom form", string(form))

	// The full path still gets the built-in form.
	form, err = s.Get(ctx, "static-assets/post")
	require.NoError(t, err)
	assert.Contains(t, string(form), "<form")
}

func TestSeedDefaults_ShipsScripts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := SeedDefaults(ctx, s)
	require.NoError(t, err)

	for name, marker := range map[string]string{
		"csp-checker.js":                 "securitypolicyviolation",
		"waf-interceptor.js":             "window.fetch",
		"client-side-protection-demo.js": "credit-card-form",
	} {
		body, err := s.Get(ctx, name)
		require.NoError(t, err, name)
		assert.Contains(t, string(body), marker, name)

		_, err = s.Get(ctx, "static-assets/"+name)
		assert.NoError(t, err, name)
	}
}
