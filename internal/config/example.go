package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todos configuration file
# Values can be overridden by TODOS_* environment variables or CLI flags

# Storage backend: file, sqlite or memory
storage = "file"

# Storage path (supports ~ and $VAR expansion)
# Defaults to ~/.todos/storage.json, or ~/.todos/storage.db for sqlite
# storage_path = "~/.todos/storage.json"

# Storage quota in bytes, 0 for unlimited
quota_bytes = 5242880

# Session log directory used by the terminal UI
log_dir = "~/.todos/logs"

# Logging: level is debug, info, warn or error; format is text, json or logfmt
log_level = "info"
log_format = "text"
log_timestamps = false

# Filter shown at startup: all, active or completed
visibility = "all"
`
}
