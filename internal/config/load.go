package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/todos-go/internal/logging"
	"github.com/nibzard/todos-go/internal/storage"
	"github.com/nibzard/todos-go/internal/todo"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.todos/todos.toml or OS-specific config dir)
// 3. Project config file (todos.toml or .todos.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	return load(fs, args, nil)
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg, err := load(fs, args, sources)
	if err != nil {
		return nil, err
	}
	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
	}, nil
}

// load is the shared implementation. If sources is non-nil, it records
// which layer supplied each field.
func load(fs *flag.FlagSet, args []string, sources map[string]ConfigSource) (*Config, error) {
	cfg := &Config{}

	// 1. Set defaults
	setDefaults(cfg)
	if sources != nil {
		for _, field := range configFields() {
			sources[field] = SourceDefault
		}
	}

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
	}

	// 4. Override from environment
	if err := loadFromEnv(cfg, sources); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cfg, nil
}

// loadConfigFile decodes TOML from path on top of cfg. Only keys present in
// the file are recorded in sources.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	cfg.Files = append(cfg.Files, path)
	if sources != nil {
		for _, field := range configFields() {
			if md.IsDefined(field) {
				sources[field] = source
			}
		}
	}
	return nil
}

// finalizeConfig normalizes names, fills the backend-specific storage path,
// expands paths and validates enumerated values.
func finalizeConfig(cfg *Config) error {
	cfg.Storage = storage.NormalizeBackend(cfg.Storage)
	if !storage.IsValidBackend(cfg.Storage) {
		return fmt.Errorf("invalid storage %q, must be one of: %s",
			cfg.Storage, strings.Join(storage.Backends(), ", "))
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = DefaultStoragePath(cfg.Storage)
	}
	cfg.StoragePath = expandPath(cfg.StoragePath)
	cfg.LogDir = expandPath(cfg.LogDir)

	if cfg.QuotaBytes < 0 {
		return fmt.Errorf("quota_bytes must not be negative, got %d", cfg.QuotaBytes)
	}

	v, err := todo.ParseVisibility(cfg.Visibility)
	if err != nil {
		return err
	}
	cfg.Visibility = string(v)

	if !logging.IsValidLevel(cfg.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error, fatal", cfg.LogLevel)
	}
	if !logging.IsValidFormat(cfg.LogFormat) {
		return fmt.Errorf("invalid log_format %q, must be one of: text, json, logfmt", cfg.LogFormat)
	}
	return nil
}
