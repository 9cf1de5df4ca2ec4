package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Enter       key.Binding
	Add         key.Binding
	Edit        key.Binding
	Delete      key.Binding
	Back        key.Binding
	Refresh     key.Binding
	Reconfigure key.Binding
	Usage       key.Binding
	LogPage     key.Binding
	Shutdown    key.Binding
	Filter      key.Binding
	Reload      key.Binding
	Quit        key.Binding

	// form keys
	Submit  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Cancel  key.Binding
	Confirm key.Binding
	Decline key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view")),
	Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Back:        key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "back")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh target")),
	Reconfigure: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reconfigure target")),
	Usage:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "usage")),
	LogPage:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "log page")),
	Shutdown:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "shutdown dem")),
	Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Reload:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "reload")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

	Submit:  key.NewBinding(key.WithKeys("enter", "ctrl+s"), key.WithHelp("enter", "submit")),
	Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "yes")),
	Decline: key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
}

func matches(msg tea.KeyMsg, b key.Binding) bool {
	return key.Matches(msg, b)
}

// browseHelp is shown while browsing
type browseHelp struct{}

func (browseHelp) ShortHelp() []key.Binding {
	return []key.Binding{keys.Enter, keys.Add, keys.Edit, keys.Delete, keys.Back, keys.Filter, keys.Quit}
}

func (browseHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.Enter, keys.Back},
		{keys.Add, keys.Edit, keys.Delete, keys.Filter},
		{keys.Refresh, keys.Reconfigure, keys.Usage, keys.LogPage},
		{keys.Shutdown, keys.Reload, keys.Quit},
	}
}

// formHelp is shown while a dialog is open
type formHelp struct {
	confirmation bool
}

func (h formHelp) ShortHelp() []key.Binding {
	if h.confirmation {
		return []key.Binding{keys.Confirm, keys.Decline}
	}
	return []key.Binding{keys.Next, keys.Prev, keys.Submit, keys.Cancel}
}

func (h formHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
