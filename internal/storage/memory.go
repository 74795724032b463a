package storage

// Memory is an in-process Storage. It is not safe for concurrent use.
type Memory struct {
	items  map[string]string
	quota  int64
	closed bool
}

// NewMemory returns an empty in-memory store limited to quota bytes
// (zero for unlimited).
func NewMemory(quota int64) *Memory {
	return &Memory{
		items: make(map[string]string),
		quota: quota,
	}
}

// GetItem implements Storage.
func (m *Memory) GetItem(key string) (string, bool, error) {
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem implements Storage.
func (m *Memory) SetItem(key, value string) error {
	if m.closed {
		return ErrClosed
	}
	if err := checkQuota(m.items, key, value, m.quota); err != nil {
		return err
	}
	m.items[key] = value
	return nil
}

// RemoveItem implements Storage.
func (m *Memory) RemoveItem(key string) error {
	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Close implements Storage. Stored values are discarded.
func (m *Memory) Close() error {
	m.closed = true
	m.items = nil
	return nil
}
