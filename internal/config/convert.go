// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"github.com/httpme/httpme/internal/assets"
	"github.com/httpme/httpme/internal/platform/httpx"
	"github.com/httpme/httpme/internal/platform/outbound"
	"github.com/httpme/httpme/internal/realtime"
	"github.com/httpme/httpme/internal/tarpit"
)

// RealtimeSettings returns the hot-swappable realtime knobs.
func (c AppConfig) RealtimeSettings() (realtime.Settings, error) {
	mode, err := realtime.ParseEchoMode(c.Realtime.EchoMode)
	if err != nil {
		return realtime.Settings{}, err
	}
	return realtime.Settings{
		Prefix:          c.Realtime.PathPrefix,
		Channel:         c.Realtime.Channel,
		SignatureHeader: c.Realtime.SignatureHeader,
		EchoMode:        mode,
		EscapeChannel:   c.Realtime.EscapeChannel,
		MaxBodyBytes:    c.Realtime.MaxBodyBytes,
	}, nil
}

// TarpitPlan returns the chunk plan for tarpitted responses.
func (c AppConfig) TarpitPlan() tarpit.Streamer {
	return tarpit.Streamer{ChunkSize: c.Tarpit.ChunkSize, Delay: c.Tarpit.Delay}
}

// HandoffTimeouts returns the transport timeouts of the handoff proxy.
func (c AppConfig) HandoffTimeouts() httpx.Timeouts {
	return httpx.Timeouts{
		Connect:      c.Handoff.ConnectTimeout,
		FirstByte:    c.Handoff.FirstByteTimeout,
		BetweenBytes: c.Handoff.BetweenBytesTimeout,
	}
}

// OutboundPolicy returns the policy applied to /dynamic_backend targets.
func (c AppConfig) OutboundPolicy() outbound.Policy {
	d := c.DynamicBackend
	return outbound.Policy{
		Enabled:     d.Enabled,
		AllowPublic: d.AllowPublic,
		Allow: outbound.Allowlist{
			Hosts:   append([]string(nil), d.Hosts...),
			CIDRs:   append([]string(nil), d.CIDRs...),
			Ports:   append([]int(nil), d.Ports...),
			Schemes: append([]string(nil), d.Schemes...),
		},
	}
}

// AssetStore returns the asset store selection.
func (c AppConfig) AssetStore() assets.Config {
	return assets.Config{
		Backend: c.Assets.Backend,
		Path:    c.Assets.Path,
		Redis: assets.RedisConfig{
			Addr:     c.Assets.Redis.Addr,
			Password: c.Assets.Redis.Password,
			DB:       c.Assets.Redis.DB,
		},
	}
}
