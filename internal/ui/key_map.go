package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	left    key.Binding
	right   key.Binding
	nextBox key.Binding
	prevBox key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		nextBox: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next box")),
		prevBox: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev box")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextBox, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.left, k.right},
		{k.nextBox, k.prevBox},
		{k.help, k.quit},
	}
}
