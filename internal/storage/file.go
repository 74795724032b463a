package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File is a Storage persisted as a single JSON object file. The whole file is
// rewritten on every change through a temp file and rename, so readers never
// see a partial write.
type File struct {
	path   string
	items  map[string]string
	quota  int64
	closed bool
}

// OpenFile opens or creates the store at path. A missing file is an empty
// store; the file itself is created on the first write.
func OpenFile(path string, quota int64) (*File, error) {
	f := &File{
		path:  path,
		items: make(map[string]string),
		quota: quota,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.items); err != nil {
		return nil, fmt.Errorf("parse storage file: %w", err)
	}
	if f.items == nil {
		f.items = make(map[string]string)
	}
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// GetItem implements Storage.
func (f *File) GetItem(key string) (string, bool, error) {
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.items[key]
	return v, ok, nil
}

// SetItem implements Storage.
func (f *File) SetItem(key, value string) error {
	if f.closed {
		return ErrClosed
	}
	if err := checkQuota(f.items, key, value, f.quota); err != nil {
		return err
	}

	prev, had := f.items[key]
	f.items[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.items[key] = prev
		} else {
			delete(f.items, key)
		}
		return err
	}
	return nil
}

// RemoveItem implements Storage.
func (f *File) RemoveItem(key string) error {
	if f.closed {
		return ErrClosed
	}
	prev, had := f.items[key]
	if !had {
		return nil
	}
	delete(f.items, key)
	if err := f.flush(); err != nil {
		f.items[key] = prev
		return err
	}
	return nil
}

// Close implements Storage.
func (f *File) Close() error {
	f.closed = true
	return nil
}

// flush writes the full map with 2-space indentation and a trailing newline.
func (f *File) flush() error {
	data, err := json.MarshalIndent(f.items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp storage file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close storage file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}
