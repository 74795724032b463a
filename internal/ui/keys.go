package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the list view.
type keyMap struct {
	Up             key.Binding
	Down           key.Binding
	Toggle         key.Binding
	Delete         key.Binding
	Edit           key.Binding
	ToggleAll      key.Binding
	ClearCompleted key.Binding
	ShowAll        key.Binding
	ShowActive     key.Binding
	ShowCompleted  key.Binding
	Input          key.Binding
	Help           key.Binding
	Quit           key.Binding

	// Input and edit modes
	Submit key.Binding
	Cancel key.Binding
	ToList key.Binding
	Abort  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "x"),
			key.WithHelp("space/x", "toggle"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter/e", "edit"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		ClearCompleted: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear completed"),
		),
		ShowAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "all"),
		),
		ShowActive: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "active"),
		),
		ShowCompleted: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "completed"),
		),
		Input: key.NewBinding(
			key.WithKeys("tab", "i"),
			key.WithHelp("tab/i", "new todo"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		ToList: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "list"),
		),
		Abort: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap for the list view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Edit, k.Delete, k.Input, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap for the list view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Edit, k.Delete},
		{k.ToggleAll, k.ClearCompleted, k.ShowAll, k.ShowActive, k.ShowCompleted},
		{k.Input, k.Help, k.Quit},
	}
}

func (k keyMap) inputHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
		k.ToList,
		k.Abort,
	}
}

func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}
