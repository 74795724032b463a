package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// loadFromEnv overrides config from TODOS_* environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) error {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v := os.Getenv("TODOS_STORAGE"); v != "" {
		cfg.Storage = v
		set("storage")
	}
	if v := os.Getenv("TODOS_STORAGE_PATH"); v != "" {
		cfg.StoragePath = v
		set("storage_path")
	}
	if v := os.Getenv("TODOS_QUOTA_BYTES"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("TODOS_QUOTA_BYTES: %w", err)
		}
		cfg.QuotaBytes = n
		set("quota_bytes")
	}
	if v := os.Getenv("TODOS_LOG_DIR"); v != "" {
		cfg.LogDir = v
		set("log_dir")
	}
	if v := os.Getenv("TODOS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv("TODOS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv("TODOS_LOG_TIMESTAMPS"); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv("TODOS_VISIBILITY"); v != "" {
		cfg.Visibility = v
		set("visibility")
	}
	return nil
}

// boolFromString parses common truthy spellings; anything else is false.
func boolFromString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
