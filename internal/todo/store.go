package todo

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/todos-go/internal/storage"
)

// Store owns the todo list, the visibility filter and the draft input.
// It is not safe for concurrent use.
type Store struct {
	items      []Item
	visibility Visibility
	draft      string

	storage storage.Storage
	logger  *log.Logger
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report swallowed storage failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the random id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithVisibility sets the initial filter.
func WithVisibility(v Visibility) Option {
	return func(s *Store) {
		s.visibility = v
	}
}

// NewStore returns an empty store that persists to st. A nil st keeps the
// list in memory only. Call Hydrate before first use to load saved items.
func NewStore(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		visibility: VisibilityAll,
		storage:    st,
		logger:     log.New(io.Discard),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate replaces the list with the saved snapshot. Any read or decode
// failure leaves the list empty.
func (s *Store) Hydrate() {
	s.items = nil
	if s.storage == nil {
		return
	}

	raw, ok, err := s.storage.GetItem(StorageKey)
	if err != nil {
		s.logger.Warn("read todos", "key", StorageKey, "err", err)
		return
	}
	if !ok || raw == "" {
		s.logger.Debug("no saved todos", "key", StorageKey)
		return
	}

	items, err := DecodeSnapshot(raw)
	if err != nil {
		s.logger.Warn("discarding saved todos", "key", StorageKey, "err", err)
		return
	}
	s.items = items
	s.logger.Debug("hydrated todos", "count", len(items))
}

// persist writes a full snapshot. Failures are logged and dropped.
func (s *Store) persist() {
	if s.storage == nil {
		return
	}
	data, err := EncodeSnapshot(s.items)
	if err != nil {
		s.logger.Warn("encode todos", "err", err)
		return
	}
	if err := s.storage.SetItem(StorageKey, data); err != nil {
		s.logger.Warn("persist todos", "key", StorageKey, "bytes", len(data), "err", err)
	}
}

// Visibility returns the current filter.
func (s *Store) Visibility() Visibility {
	return s.visibility
}

// SetVisibility changes the filter.
func (s *Store) SetVisibility(v Visibility) {
	s.visibility = v
}

// Draft returns the pending new-item text.
func (s *Store) Draft() string {
	return s.draft
}

// SetDraft replaces the pending new-item text.
func (s *Store) SetDraft(text string) {
	s.draft = text
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (Item, bool) {
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	return Item{}, false
}

// Editing returns the item currently in edit mode, if any.
func (s *Store) Editing() (Item, bool) {
	for _, it := range s.items {
		if it.Editing {
			return it, true
		}
	}
	return Item{}, false
}

// AllTodos returns every item, newest first.
func (s *Store) AllTodos() []Item {
	return s.filter(func(Item) bool { return true })
}

// ActiveTodos returns the items not yet completed.
func (s *Store) ActiveTodos() []Item {
	return s.filter(func(it Item) bool { return !it.Completed })
}

// CompletedTodos returns the completed items.
func (s *Store) CompletedTodos() []Item {
	return s.filter(func(it Item) bool { return it.Completed })
}

// VisibleTodos returns the items selected by the current filter.
func (s *Store) VisibleTodos() []Item {
	switch s.visibility {
	case VisibilityActive:
		return s.ActiveTodos()
	case VisibilityCompleted:
		return s.CompletedTodos()
	default:
		return s.AllTodos()
	}
}

// Remaining returns the number of active items.
func (s *Store) Remaining() int {
	n := 0
	for _, it := range s.items {
		if !it.Completed {
			n++
		}
	}
	return n
}

// AddTodo turns the draft into a new item at the front of the list and
// clears the draft. A blank draft is ignored. It returns the new item and
// whether one was added.
func (s *Store) AddTodo() (Item, bool) {
	title := strings.TrimSpace(s.draft)
	if title == "" {
		return Item{}, false
	}
	it := Item{ID: s.newID(), Title: title}
	s.items = append([]Item{it}, s.items...)
	s.draft = ""
	s.persist()
	return it, true
}

// RemoveTodo deletes the item with the given id.
func (s *Store) RemoveTodo(id string) {
	s.removeWhere(func(it Item) bool { return it.ID == id })
	s.persist()
}

// ToggleTodo sets the completed flag of the item with the given id.
func (s *Store) ToggleTodo(id string, completed bool) {
	if i := s.index(id); i >= 0 {
		s.items[i].Completed = completed
	}
	s.persist()
}

// ToggleAll sets the completed flag on every item.
func (s *Store) ToggleAll(toCompleted bool) {
	for i := range s.items {
		s.items[i].Completed = toCompleted
	}
	s.persist()
}

// ClearCompleted deletes every completed item.
func (s *Store) ClearCompleted() {
	s.removeWhere(func(it Item) bool { return it.Completed })
	s.persist()
}

// EditTodo puts the item with the given id in edit mode and takes every
// other item out of it.
func (s *Store) EditTodo(id string) {
	for i := range s.items {
		s.items[i].Editing = s.items[i].ID == id
	}
	s.persist()
}

// SaveEdit sets the title of the item with the given id and ends edit mode.
// A title that is blank after trimming deletes the item.
func (s *Store) SaveEdit(id, nextTitle string) {
	title := strings.TrimSpace(nextTitle)
	if title == "" {
		s.RemoveTodo(id)
		return
	}
	if i := s.index(id); i >= 0 {
		s.items[i].Title = title
		s.items[i].Editing = false
	}
	s.persist()
}

// CancelEdit ends edit mode for the item with the given id, keeping its title.
func (s *Store) CancelEdit(id string) {
	if i := s.index(id); i >= 0 {
		s.items[i].Editing = false
	}
	s.persist()
}

func (s *Store) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) filter(keep func(Item) bool) []Item {
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) removeWhere(drop func(Item) bool) {
	kept := s.items[:0]
	for _, it := range s.items {
		if !drop(it) {
			kept = append(kept, it)
		}
	}
	s.items = kept
}
