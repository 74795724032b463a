package config

import (
	"flag"
)

// flagFields maps flag names to source field names.
var flagFields = map[string]string{
	"storage":        "storage",
	"storage-path":   "storage_path",
	"quota-bytes":    "quota_bytes",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"visibility":     "visibility",
}

// parseFlags defines the global flags on fs and parses args into cfg.
// If sources is non-nil, explicitly set flags are recorded.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todos", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend (file, sqlite, memory)")
	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "Storage file or database path")
	fs.Int64Var(&cfg.QuotaBytes, "quota-bytes", cfg.QuotaBytes, "Storage quota in bytes (0 = unlimited)")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Session log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.StringVar(&cfg.Visibility, "visibility", cfg.Visibility, "Initial filter (all, active, completed)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
