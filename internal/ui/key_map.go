package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	play     key.Binding
	toggle   key.Binding
	next     key.Binding
	prev     key.Binding
	shuffle  key.Binding
	repeat   key.Binding
	volUp    key.Binding
	volDown  key.Binding
	forward  key.Binding
	backward key.Binding
	refresh  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		play:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		shuffle:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		volUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "volume down")),
		forward:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+10s")),
		backward: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-10s")),
		refresh:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.toggle, k.next, k.prev, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.play, k.toggle, k.next, k.prev},
		{k.shuffle, k.repeat, k.volUp, k.volDown},
		{k.backward, k.forward, k.refresh, k.quit},
	}
}
