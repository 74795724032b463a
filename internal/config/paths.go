package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// expandPath expands $VAR references and a leading ~ in p.
func expandPath(p string) string {
	if p == "" {
		return p
	}

	expanded := os.ExpandEnv(p)
	home, err := os.UserHomeDir()
	if err != nil {
		return expanded
	}
	switch {
	case expanded == "~":
		return home
	case strings.HasPrefix(expanded, "~/"):
		return filepath.Join(home, expanded[2:])
	case runtime.GOOS == "windows" && strings.HasPrefix(expanded, `~\`):
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}
