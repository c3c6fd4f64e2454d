package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the watch view.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Route    key.Binding
	Cargo    key.Binding
	Depot    key.Binding
	NextPick key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybinding configuration.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab", "prev"),
		),
		Route: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "route"),
		),
		Cargo: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "carrier"),
		),
		Depot: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "depot"),
		),
		NextPick: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next depot"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
