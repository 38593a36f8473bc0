package model

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit key.Binding
	Focus  key.Binding
	Up     key.Binding
	Down   key.Binding
	Copy   key.Binding
	Paste  key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run/expand")),
	Focus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
	Up:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
	Down:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
	Copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	Paste:  key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
	Toggle: key.NewBinding(key.WithKeys("`"), key.WithHelp("`", "log")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
}

func (k keyMap) help(logFocused bool) []key.Binding {
	if logFocused {
		return []key.Binding{k.Up, k.Down, k.Submit, k.Copy, k.Focus, k.Toggle, k.Quit}
	}
	return []key.Binding{k.Submit, k.Paste, k.Focus, k.Toggle, k.Quit}
}
