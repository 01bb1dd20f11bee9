// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the schedule view.
type KeyMap struct {
	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Actions
	Watch         key.Binding
	Remove        key.Binding
	Filter        key.Binding
	CycleStatus   key.Binding
	ClearFilter   key.Binding
	Undo          key.Binding
	Redo          key.Binding
	ToggleStats   key.Binding
	ToggleCounts  key.Binding
	ToggleHistory key.Binding
	ToggleLog     key.Binding

	// General
	Help   key.Binding
	Escape key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first show"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last show"),
		),

		// Actions
		Watch: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "mark watched"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove show"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status filter"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filter"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "redo"),
		),
		ToggleStats: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle stats"),
		),
		ToggleCounts: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle counts"),
		),
		ToggleHistory: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle history"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "toggle debug log"),
		),

		// General
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "go back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Watch, k.Filter, k.Undo, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Watch, k.Remove, k.Undo, k.Redo},
		{k.Filter, k.CycleStatus, k.ClearFilter},
		{k.ToggleStats, k.ToggleCounts, k.ToggleHistory, k.ToggleLog, k.Help, k.Quit},
	}
}

// FilterKeyMap defines the keybindings while the filter input has focus.
type FilterKeyMap struct {
	Apply  key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

// DefaultFilterKeyMap returns the keybindings for filter input.
func DefaultFilterKeyMap() FilterKeyMap {
	return FilterKeyMap{
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply filter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k FilterKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Apply, k.Cancel}
}

// FullHelp returns keybindings for the full help view.
func (k FilterKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Apply, k.Cancel, k.Quit}}
}
