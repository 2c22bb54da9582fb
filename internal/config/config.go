// Package config provides typed environment lookups shared by the collector
// daemon and the CLI. Parse failures fall back to the default value with a
// logged warning rather than failing startup.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// GetString returns the value of key, or defaultValue when unset.
func GetString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetInt returns the integer value of key, or defaultValue when unset or
// unparseable.
func GetInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer in environment, using default",
			"key", key, "value", value, "error", err)
		return defaultValue
	}
	return intValue
}

// GetBool returns the boolean value of key, or defaultValue when unset or
// unparseable. Accepts the strconv.ParseBool forms ("1", "t", "true", ...).
func GetBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Invalid boolean in environment, using default",
			"key", key, "value", value, "error", err)
		return defaultValue
	}
	return boolValue
}

// GetDuration returns the duration value of key, or defaultValue when unset
// or unparseable. Values use time.ParseDuration syntax ("5s", "1m30s").
// A bare integer is read as whole seconds for workflow-input compatibility.
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	durationValue, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default",
			"key", key, "value", value, "error", err)
		return defaultValue
	}
	return durationValue
}
