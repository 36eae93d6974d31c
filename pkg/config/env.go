// Package config provides environment lookups with warn-and-fallback
// semantics and small validators for configuration values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup reads key and converts it with parse. An unset or blank variable
// yields def silently; a value parse rejects yields def with a warning.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("invalid environment value, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.String("default", fmt.Sprint(def)),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

// GetEnvString returns the trimmed value of key, or defaultValue when unset.
//
//	baseURL := GetEnvString("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co")
func GetEnvString(key, defaultValue string) string {
	return lookup(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// GetEnvInt returns key parsed as a base-10 integer.
func GetEnvInt(key string, defaultValue int) int {
	return lookup(key, defaultValue, strconv.Atoi)
}

// GetEnvBool returns key parsed with strconv.ParseBool.
func GetEnvBool(key string, defaultValue bool) bool {
	return lookup(key, defaultValue, strconv.ParseBool)
}

// GetEnvDuration returns key parsed with time.ParseDuration ("30s", "1m30s").
//
//	timeout := GetEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(key, defaultValue, time.ParseDuration)
}

// GetEnvStringList splits key on commas. Items are trimmed and empty ones
// dropped; a list with no items left yields defaultValue.
//
//	// CHART_STUDIES="MACD@tv-basicstudies, RSI@tv-basicstudies"
//	studies := GetEnvStringList("CHART_STUDIES", nil)
func GetEnvStringList(key string, defaultValue []string) []string {
	items := lookup(key, nil, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	})
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
