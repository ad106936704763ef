// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// AppConfig is the fully resolved service configuration.
type AppConfig struct {
	LogLevel       string               `yaml:"logLevel" json:"logLevel"`
	Server         ServerConfig         `yaml:"server" json:"server"`
	Metrics        MetricsConfig        `yaml:"metrics" json:"metrics"`
	Realtime       RealtimeConfig       `yaml:"realtime" json:"realtime"`
	Handoff        HandoffConfig        `yaml:"handoff" json:"handoff"`
	Tarpit         TarpitConfig         `yaml:"tarpit" json:"tarpit"`
	Assets         AssetsConfig         `yaml:"assets" json:"assets"`
	DynamicBackend DynamicBackendConfig `yaml:"dynamicBackend" json:"dynamicBackend"`
	RateLimit      RateLimitConfig      `yaml:"rateLimit" json:"rateLimit"`
	Telemetry      TelemetryConfig      `yaml:"telemetry" json:"telemetry"`

	// Version is injected from the binary, never read from file or ENV.
	Version string `yaml:"-" json:"version,omitempty"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listenAddr" json:"listenAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes" json:"maxHeaderBytes"`
}

// MetricsConfig enables the separate Prometheus listener when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr" json:"listenAddr"`
}

// RealtimeConfig configures the GRIP realtime routes.
type RealtimeConfig struct {
	PathPrefix      string `yaml:"pathPrefix" json:"pathPrefix"`
	Channel         string `yaml:"channel" json:"channel"`
	SignatureHeader string `yaml:"signatureHeader" json:"signatureHeader"`
	EchoMode        string `yaml:"echoMode" json:"echoMode"`
	EscapeChannel   bool   `yaml:"escapeChannel" json:"escapeChannel"`
	MaxBodyBytes    int64  `yaml:"maxBodyBytes" json:"maxBodyBytes"`
}

// HandoffConfig points at the GRIP proxy that receives unsigned realtime requests.
type HandoffConfig struct {
	Target              string        `yaml:"target" json:"target"`
	ConnectTimeout      time.Duration `yaml:"connectTimeout" json:"connectTimeout"`
	FirstByteTimeout    time.Duration `yaml:"firstByteTimeout" json:"firstByteTimeout"`
	BetweenBytesTimeout time.Duration `yaml:"betweenBytesTimeout" json:"betweenBytesTimeout"`
}

// TarpitConfig is the chunk plan for tarpitted responses.
type TarpitConfig struct {
	ChunkSize int           `yaml:"chunkSize" json:"chunkSize"`
	Delay     time.Duration `yaml:"delay" json:"delay"`
}

// AssetsConfig selects the asset store backend.
type AssetsConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Path    string      `yaml:"path" json:"path"`
	SeedDir string      `yaml:"seedDir" json:"seedDir"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig is used by the redis asset backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"-"`
	DB       int    `yaml:"db" json:"db"`
}

// DynamicBackendConfig governs outbound requests made by /dynamic_backend.
type DynamicBackendConfig struct {
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	AllowPublic bool     `yaml:"allowPublic" json:"allowPublic"`
	Hosts       []string `yaml:"hosts" json:"hosts"`
	CIDRs       []string `yaml:"cidrs" json:"cidrs"`
	Ports       []int    `yaml:"ports" json:"ports"`
	Schemes     []string `yaml:"schemes" json:"schemes"`
	MaxRepeat   int      `yaml:"maxRepeat" json:"maxRepeat"`
	RepeatRate  float64  `yaml:"repeatRate" json:"repeatRate"` // requests per second
}

// RateLimitConfig is the per-IP request budget.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute" json:"requestsPerMinute"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // grpc or http
	Endpoint     string  `yaml:"endpoint" json:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	Environment  string  `yaml:"environment" json:"environment"`
}

// Defaults returns the configuration used when neither file nor ENV set a key.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxHeaderBytes:  1 << 20,
		},
		Realtime: RealtimeConfig{
			PathPrefix:      "/test/",
			Channel:         "test",
			SignatureHeader: "Grip-Sig",
			EchoMode:        "raw",
			MaxBodyBytes:    1 << 20,
		},
		Handoff: HandoffConfig{
			ConnectTimeout:      time.Second,
			FirstByteTimeout:    15 * time.Second,
			BetweenBytesTimeout: 10 * time.Second,
		},
		Tarpit: TarpitConfig{
			ChunkSize: 100,
			Delay:     time.Second,
		},
		Assets: AssetsConfig{
			Backend: "memory",
		},
		DynamicBackend: DynamicBackendConfig{
			Enabled:     true,
			AllowPublic: true,
			Ports:       []int{443},
			Schemes:     []string{"https"},
			MaxRepeat:   10,
			RepeatRate:  5,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 600,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
