package tui

import "github.com/charmbracelet/bubbles/key"

// confirmKeyMap holds the bindings of the confirmation prompt.
type confirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

var confirmKeys = confirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}
