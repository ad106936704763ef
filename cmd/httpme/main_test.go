// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpme/httpme/internal/config"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "httpme "))
	assert.Contains(t, out, "commit:")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "httpme.yaml")

	out, err := run(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().Realtime, cfg.Realtime)

	_, err = run(t, "", "config", "init", path)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	_, err = run(t, "", "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "realtime:\n  channel: lobby\n")
	out, err := run(t, "", "--config", good, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, good+" is valid")

	bad := writeConfig(t, "realtime:\n  echoMode: loud\n")
	_, err = run(t, "", "--config", bad, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestConfigValidate_EnvPath(t *testing.T) {
	path := writeConfig(t, "logLevel: debug\n")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"config", "validate"})
	cmd.SetOut(&out)
	t.Setenv(config.EnvConfigPath, path)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), path)
}

func TestConfigShow(t *testing.T) {
	path := writeConfig(t, "realtime:\n  channel: lobby\nassets:\n  redis:\n    password: hunter2\n")

	out, err := run(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "channel: lobby")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, redacted)

	out, err = run(t, "", "--config", path, "config", "show", "--json")
	require.NoError(t, err)
	var shown config.AppConfig
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "lobby", shown.Realtime.Channel)
	assert.NotContains(t, out, "hunter2")
}

func TestAssets_PutGetList(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "assets:\n  backend: sqlite\n  path: "+filepath.Join(dir, "assets.db")+"\n")

	out, err := run(t, "<h1>hi</h1>", "--config", path, "assets", "put", "static-assets/page.html")
	require.NoError(t, err)
	assert.Contains(t, out, "stored static-assets/page.html (11 bytes)")

	file := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(file, []byte("console.log(1)"), 0o600))
	_, err = run(t, "", "--config", path, "assets", "put", "app.js", file)
	require.NoError(t, err)

	out, err = run(t, "", "--config", path, "assets", "get", "/static-assets/page.html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", out)

	out, err = run(t, "", "--config", path, "assets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "app.js\n")
	assert.Contains(t, out, "static-assets/page.html\n")

	_, err = run(t, "", "--config", path, "assets", "get", "missing")
	assert.Error(t, err)
}

func TestAssets_PutRejectsMemoryBackend(t *testing.T) {
	_, err := run(t, "x", "assets", "put", "k")
	assert.ErrorIs(t, err, errVolatileBackend)
}

func TestAssets_InvalidKey(t *testing.T) {
	_, err := run(t, "", "assets", "get", "../etc/passwd")
	assert.Error(t, err)
}
