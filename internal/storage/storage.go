package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultQuota mirrors the usual per-origin local storage allowance.
const DefaultQuota int64 = 5 * 1024 * 1024

var (
	// ErrQuotaExceeded is returned when a write would grow the store past its quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage is closed")
	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Storage is a string key-value store.
type Storage interface {
	// GetItem returns the value stored under key. ok is false when the key is absent.
	GetItem(key string) (value string, ok bool, err error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(key string) error
	// Close releases the store.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the file or database path. Ignored by the memory backend.
	Path string
	// Quota is the byte limit for the whole store. Zero means unlimited.
	Quota int64
}

// Backends returns the supported backend names.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendMemory}
}

// NormalizeBackend lowercases and trims a backend name.
func NormalizeBackend(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsValidBackend reports whether name is a supported backend.
func IsValidBackend(name string) bool {
	switch NormalizeBackend(name) {
	case BackendMemory, BackendFile, BackendSQLite:
		return true
	}
	return false
}

// Open constructs the backend named in opts.
func Open(opts Options) (Storage, error) {
	switch NormalizeBackend(opts.Backend) {
	case BackendMemory:
		return NewMemory(opts.Quota), nil
	case BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file storage: path is empty")
		}
		return OpenFile(opts.Path, opts.Quota)
	case BackendSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite storage: path is empty")
		}
		return OpenSQLite(opts.Path, opts.Quota)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// checkQuota reports ErrQuotaExceeded if replacing key's value in items with
// value would push the total size past quota.
func checkQuota(items map[string]string, key, value string, quota int64) error {
	if quota <= 0 {
		return nil
	}
	var total int64
	for k, v := range items {
		if k == key {
			continue
		}
		total += int64(len(k) + len(v))
	}
	total += int64(len(key) + len(value))
	if total > quota {
		return fmt.Errorf("%w: %d bytes over %d byte limit", ErrQuotaExceeded, total-quota, quota)
	}
	return nil
}
