package todo

import (
	"fmt"
	"strings"
)

// StorageKey is the storage key holding the JSON snapshot of the list.
const StorageKey = "todos-go::todos"

// Item is a single todo entry.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Editing   bool   `json:"editing,omitempty"`
}

// Visibility selects which items VisibleTodos returns.
type Visibility string

const (
	VisibilityAll       Visibility = "all"
	VisibilityActive    Visibility = "active"
	VisibilityCompleted Visibility = "completed"
)

// Visibilities lists the filters in display order.
func Visibilities() []Visibility {
	return []Visibility{VisibilityAll, VisibilityActive, VisibilityCompleted}
}

// ParseVisibility converts a filter name to a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case VisibilityAll, VisibilityActive, VisibilityCompleted:
		return v, nil
	default:
		return "", fmt.Errorf("invalid visibility %q, must be one of: all, active, completed", s)
	}
}
