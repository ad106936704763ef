// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/httpme/httpme/internal/log"
	"github.com/rs/zerolog"
)

// lookup resolves key from the environment with parse. Unset or empty
// variables and values parse rejects fall back to def. Every choice is
// logged at debug, bad values at warn.
func lookup[T any](logger zerolog.Logger, key string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").Msg("using default value")
		return def
	}
	if strings.TrimSpace(v) == "" {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return def
	}
	out, err := parse(v)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Str("value", v).Interface("default", def).
			Msg("invalid value in environment variable, using default")
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Interface("value", out)
	}
	ev.Msg("using environment variable")
	return out
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

func envLogger() zerolog.Logger { return log.WithComponent("config") }

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return lookup(envLogger(), key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from environment variable or returns default value.
func ParseInt(key string, defaultValue int) int {
	return lookup(envLogger(), key, defaultValue, strconv.Atoi)
}

// ParseInt64 is ParseInt for 64-bit sizes.
func ParseInt64(key string, defaultValue int64) int64 {
	return lookup(envLogger(), key, defaultValue, func(s string) (int64, error) {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	})
}

// ParseDuration reads a duration in Go duration format (e.g. "5s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(envLogger(), key, defaultValue, time.ParseDuration)
}

// ParseBool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return lookup(envLogger(), key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, strconv.ErrSyntax
	})
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return lookup(envLogger(), key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	})
}

// ParseStringList reads a comma-separated list. Blank items are dropped.
func ParseStringList(key string, defaultValue []string) []string {
	return lookup(envLogger(), key, defaultValue, func(s string) ([]string, error) {
		return splitList(s), nil
	})
}

// ParseIntList reads a comma-separated list of integers.
func ParseIntList(key string, defaultValue []int) []int {
	return lookup(envLogger(), key, defaultValue, func(s string) ([]int, error) {
		parts := splitList(s)
		out := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
