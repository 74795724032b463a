// Package ui provides the interactive terminal view of the todo list.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/todos-go/internal/todo"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	logger *log.Logger
}

// WithLogger sets the logger for view events.
func WithLogger(logger *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		c.logger = logger
	}
}

// RunTUI runs the interactive view over store until the user quits or ctx
// is cancelled. The store should already be hydrated.
func RunTUI(ctx context.Context, store *todo.Store, opts ...TUIOption) error {
	c := &tuiConfig{}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(store, c.logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type focus int

const (
	focusInput focus = iota
	focusList
	focusEdit
)

type tuiModel struct {
	store     *todo.Store
	logger    *log.Logger
	keys      keyMap
	help      help.Model
	input     textinput.Model
	editor    textinput.Model
	focus     focus
	cursor    int
	editingID string
	quitting  bool
}

func newTUIModel(store *todo.Store, logger *log.Logger) *tuiModel {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	input := textinput.New()
	input.Placeholder = "What needs to be done?"
	input.Prompt = "❯ "
	input.PromptStyle = cursorStyle
	input.CharLimit = 0
	input.SetValue(store.Draft())
	input.Focus()

	editor := textinput.New()
	editor.Prompt = "✎ "
	editor.PromptStyle = cursorStyle
	editor.CharLimit = 0

	return &tuiModel{
		store:  store,
		logger: logger,
		keys:   defaultKeyMap(),
		help:   help.New(),
		input:  input,
		editor: editor,
		focus:  focusInput,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 4
		m.editor.Width = msg.Width - 8
		return m, nil
	case tea.KeyMsg:
		switch m.focus {
		case focusInput:
			return m.updateInput(msg)
		case focusEdit:
			return m.updateEdit(msg)
		default:
			return m.updateList(msg)
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusInput:
		m.input, cmd = m.input.Update(msg)
	case focusEdit:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m *tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Abort):
		m.quitting = true
		return m, tea.Quit
	case msg.Type == tea.KeyEnter:
		m.store.SetDraft(m.input.Value())
		if it, ok := m.store.AddTodo(); ok {
			m.logger.Debug("added todo", "id", it.ID)
		}
		m.input.SetValue(m.store.Draft())
		return m, nil
	case key.Matches(msg, m.keys.ToList):
		m.focus = focusList
		m.input.Blur()
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.store.SetDraft(m.input.Value())
	return m, cmd
}

func (m *tuiModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Abort):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.store.SaveEdit(m.editingID, m.editor.Value())
		m.logger.Debug("saved edit", "id", m.editingID)
		m.endEdit()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.store.CancelEdit(m.editingID)
		m.endEdit()
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.store.VisibleTodos()
	current, hasCurrent := m.current(items)

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if hasCurrent {
			m.store.ToggleTodo(current.ID, !current.Completed)
		}
	case key.Matches(msg, m.keys.Delete):
		if hasCurrent {
			m.store.RemoveTodo(current.ID)
			m.logger.Debug("removed todo", "id", current.ID)
		}
	case key.Matches(msg, m.keys.Edit):
		if hasCurrent {
			m.store.EditTodo(current.ID)
			m.editingID = current.ID
			m.editor.SetValue(current.Title)
			m.editor.CursorEnd()
			m.focus = focusEdit
			return m, m.editor.Focus()
		}
	case key.Matches(msg, m.keys.ToggleAll):
		m.store.ToggleAll(m.store.Remaining() > 0)
	case key.Matches(msg, m.keys.ClearCompleted):
		m.store.ClearCompleted()
	case key.Matches(msg, m.keys.ShowAll):
		m.setVisibility(todo.VisibilityAll)
	case key.Matches(msg, m.keys.ShowActive):
		m.setVisibility(todo.VisibilityActive)
	case key.Matches(msg, m.keys.ShowCompleted):
		m.setVisibility(todo.VisibilityCompleted)
	case key.Matches(msg, m.keys.Input):
		m.focus = focusInput
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.clampCursor()
	return m, nil
}

func (m *tuiModel) endEdit() {
	m.editingID = ""
	m.editor.Blur()
	m.editor.SetValue("")
	m.focus = focusList
	m.clampCursor()
}

func (m *tuiModel) setVisibility(v todo.Visibility) {
	m.store.SetVisibility(v)
	m.cursor = 0
}

func (m *tuiModel) current(items []todo.Item) (todo.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(items) {
		return todo.Item{}, false
	}
	return items[m.cursor], true
}

func (m *tuiModel) clampCursor() {
	n := len(m.store.VisibleTodos())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("todos") + "\n\n")
	b.WriteString(m.input.View() + "\n\n")

	items := m.store.VisibleTodos()
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render(emptyMessage(m.store)) + "\n")
	}
	for i, it := range items {
		b.WriteString(m.renderItem(i, it) + "\n")
	}

	b.WriteString(footerStyle.Render(m.renderStatus()) + "\n")
	b.WriteString(m.renderHelp() + "\n")
	return b.String()
}

func (m *tuiModel) renderItem(i int, it todo.Item) string {
	marker := "  "
	if m.focus != focusInput && i == m.cursor {
		marker = cursorStyle.Render("> ")
	}

	check := "[ ]"
	if it.Completed {
		check = checkStyle.Render("[x]")
	}

	if m.focus == focusEdit && it.ID == m.editingID {
		return marker + check + " " + m.editor.View()
	}

	title := it.Title
	if it.Completed {
		title = completedStyle.Render(title)
	}
	return marker + check + " " + title
}

func (m *tuiModel) renderStatus() string {
	parts := []string{itemsLeft(m.store.Remaining())}

	var filters []string
	for _, v := range todo.Visibilities() {
		if v == m.store.Visibility() {
			filters = append(filters, filterActiveStyle.Render(string(v)))
		} else {
			filters = append(filters, mutedStyle.Render(string(v)))
		}
	}
	parts = append(parts, strings.Join(filters, " "))

	if n := len(m.store.CompletedTodos()); n > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d completed", n)))
	}
	return strings.Join(parts, mutedStyle.Render(" · "))
}

func (m *tuiModel) renderHelp() string {
	switch m.focus {
	case focusInput:
		return m.help.ShortHelpView(m.keys.inputHelp())
	case focusEdit:
		return m.help.ShortHelpView(m.keys.editHelp())
	default:
		return m.help.View(m.keys)
	}
}

func itemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}

func emptyMessage(store *todo.Store) string {
	if store.Len() == 0 {
		return "  Nothing to do yet."
	}
	return fmt.Sprintf("  No %s todos.", store.Visibility())
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
