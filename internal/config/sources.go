package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// projectConfigNames are checked in the working directory, in order.
var projectConfigNames = []string{"todos.toml", ".todos.toml"}

// SearchPaths lists every config file location that Load checks, lowest
// priority first. User-level paths come before project-level ones.
func SearchPaths() []string {
	paths := userConfigCandidates()
	return append(paths, projectConfigNames...)
}

// userConfigCandidates returns ~/.todos/todos.toml followed by the
// OS-specific config location, skipping any that cannot be determined.
func userConfigCandidates() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".todos", "todos.toml"))
	}
	if cfgDir := osUserConfigDir(); cfgDir != "" {
		paths = append(paths, filepath.Join(cfgDir, "todos", "todos.toml"))
	}
	return paths
}

// findUserConfigFile returns the first user-level config file that exists.
func findUserConfigFile() string {
	return firstExisting(userConfigCandidates())
}

// findProjectConfigFile returns the project config file in the working
// directory, if any.
func findProjectConfigFile() string {
	return firstExisting(projectConfigNames)
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// osUserConfigDir returns the OS-specific user config directory, or "".
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return os.Getenv("APPDATA")
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}
