// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/httpme/httpme/internal/log"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is shared by every environment key the loader reads.
const EnvPrefix = "HTTPME_"

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "HTTPME_CONFIG"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // keys read during the last Load
}

// NewLoader creates a new configuration loader. An empty configPath means
// defaults plus ENV only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, possibly empty.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envInt64(key string, defaultVal int64) int64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt64(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envStrings(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseStringList(key, defaultVal)
}

func (l *Loader) envInts(key string, defaultVal []int) []int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseIntList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file parse -> ENV overrides -> Validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.ConsumedEnvKeys = map[string]struct{}{EnvConfigPath: {}}
	l.mergeEnv(&cfg)
	l.warnUnknownEnv()

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file over cfg with STRICT parsing.
// Unknown fields are fatal so typos never silently fall back to defaults.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return decodeStrict(data, cfg)
}

func decodeStrict(data []byte, cfg *AppConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString("HTTPME_LOG_LEVEL", cfg.LogLevel)

	s := &cfg.Server
	s.ListenAddr = l.envString("HTTPME_LISTEN", s.ListenAddr)
	s.ReadTimeout = l.envDuration("HTTPME_SERVER_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = l.envDuration("HTTPME_SERVER_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = l.envDuration("HTTPME_SERVER_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = l.envDuration("HTTPME_SERVER_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.MaxHeaderBytes = l.envInt("HTTPME_SERVER_MAX_HEADER_BYTES", s.MaxHeaderBytes)

	cfg.Metrics.ListenAddr = l.envString("HTTPME_METRICS_LISTEN", cfg.Metrics.ListenAddr)

	rt := &cfg.Realtime
	rt.PathPrefix = l.envString("HTTPME_REALTIME_PREFIX", rt.PathPrefix)
	rt.Channel = l.envString("HTTPME_REALTIME_CHANNEL", rt.Channel)
	rt.SignatureHeader = l.envString("HTTPME_REALTIME_SIGNATURE_HEADER", rt.SignatureHeader)
	rt.EchoMode = l.envString("HTTPME_REALTIME_ECHO_MODE", rt.EchoMode)
	rt.EscapeChannel = l.envBool("HTTPME_REALTIME_ESCAPE_CHANNEL", rt.EscapeChannel)
	rt.MaxBodyBytes = l.envInt64("HTTPME_REALTIME_MAX_BODY_BYTES", rt.MaxBodyBytes)

	h := &cfg.Handoff
	h.Target = l.envString("HTTPME_HANDOFF_TARGET", h.Target)
	h.ConnectTimeout = l.envDuration("HTTPME_HANDOFF_CONNECT_TIMEOUT", h.ConnectTimeout)
	h.FirstByteTimeout = l.envDuration("HTTPME_HANDOFF_FIRST_BYTE_TIMEOUT", h.FirstByteTimeout)
	h.BetweenBytesTimeout = l.envDuration("HTTPME_HANDOFF_BETWEEN_BYTES_TIMEOUT", h.BetweenBytesTimeout)

	cfg.Tarpit.ChunkSize = l.envInt("HTTPME_TARPIT_CHUNK_SIZE", cfg.Tarpit.ChunkSize)
	cfg.Tarpit.Delay = l.envDuration("HTTPME_TARPIT_DELAY", cfg.Tarpit.Delay)

	a := &cfg.Assets
	a.Backend = l.envString("HTTPME_ASSETS_BACKEND", a.Backend)
	a.Path = l.envString("HTTPME_ASSETS_PATH", a.Path)
	a.SeedDir = l.envString("HTTPME_ASSETS_SEED_DIR", a.SeedDir)
	a.Redis.Addr = l.envString("HTTPME_ASSETS_REDIS_ADDR", a.Redis.Addr)
	a.Redis.Password = l.envString("HTTPME_ASSETS_REDIS_PASSWORD", a.Redis.Password)
	a.Redis.DB = l.envInt("HTTPME_ASSETS_REDIS_DB", a.Redis.DB)

	d := &cfg.DynamicBackend
	d.Enabled = l.envBool("HTTPME_DYNAMIC_ENABLED", d.Enabled)
	d.AllowPublic = l.envBool("HTTPME_DYNAMIC_ALLOW_PUBLIC", d.AllowPublic)
	d.Hosts = l.envStrings("HTTPME_DYNAMIC_HOSTS", d.Hosts)
	d.CIDRs = l.envStrings("HTTPME_DYNAMIC_CIDRS", d.CIDRs)
	d.Ports = l.envInts("HTTPME_DYNAMIC_PORTS", d.Ports)
	d.Schemes = l.envStrings("HTTPME_DYNAMIC_SCHEMES", d.Schemes)
	d.MaxRepeat = l.envInt("HTTPME_DYNAMIC_MAX_REPEAT", d.MaxRepeat)
	d.RepeatRate = l.envFloat("HTTPME_DYNAMIC_REPEAT_RATE", d.RepeatRate)

	cfg.RateLimit.Enabled = l.envBool("HTTPME_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = l.envInt("HTTPME_RATE_LIMIT_REQUESTS_PER_MINUTE", cfg.RateLimit.RequestsPerMinute)

	t := &cfg.Telemetry
	t.Enabled = l.envBool("HTTPME_TELEMETRY_ENABLED", t.Enabled)
	t.Exporter = l.envString("HTTPME_TELEMETRY_EXPORTER", t.Exporter)
	t.Endpoint = l.envString("HTTPME_TELEMETRY_ENDPOINT", t.Endpoint)
	t.SamplingRate = l.envFloat("HTTPME_TELEMETRY_SAMPLING_RATE", t.SamplingRate)
	t.Environment = l.envString("HTTPME_TELEMETRY_ENVIRONMENT", t.Environment)
}

// warnUnknownEnv logs HTTPME_ variables no field consumed, usually typos.
func (l *Loader) warnUnknownEnv() {
	var unknown []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return
	}
	sort.Strings(unknown)
	logger := log.WithComponent("config")
	logger.Warn().
		Str("event", "config.unknown_env").
		Strs("keys", unknown).
		Msg("ignoring unknown environment variables")
}
