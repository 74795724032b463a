package config

import (
	"github.com/nibzard/todos-go/internal/storage"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
}

// Default values.
const (
	DefaultStorage    = storage.BackendFile
	DefaultQuotaBytes = storage.DefaultQuota
	DefaultBaseDir    = "~/.todos"
	DefaultLogDir     = "~/.todos/logs"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultVisibility = "all"
)

// DefaultStoragePath returns the storage path used when none is configured.
func DefaultStoragePath(backend string) string {
	switch storage.NormalizeBackend(backend) {
	case storage.BackendSQLite:
		return DefaultBaseDir + "/storage.db"
	case storage.BackendMemory:
		return ""
	default:
		return DefaultBaseDir + "/storage.json"
	}
}

// Config holds the full configuration for todos.
type Config struct {
	// Storage
	Storage     string `toml:"storage"`
	StoragePath string `toml:"storage_path"`
	QuotaBytes  int64  `toml:"quota_bytes"`

	// Logging
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`

	// Initial visibility filter
	Visibility string `toml:"visibility"`

	// Config files that were read, lowest priority first (computed)
	Files []string `toml:"-"`
}

// StorageOptions returns the options for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Storage,
		Path:    c.StoragePath,
		Quota:   c.QuotaBytes,
	}
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"storage",
		"storage_path",
		"quota_bytes",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"visibility",
	}
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Storage = DefaultStorage
	cfg.StoragePath = ""
	cfg.QuotaBytes = DefaultQuotaBytes
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.Visibility = DefaultVisibility
}
