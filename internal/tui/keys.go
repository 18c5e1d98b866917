package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Focus    key.Binding
	Grab     key.Binding
	Drop     key.Binding
	Return   key.Binding
	Cancel   key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Today    key.Binding
	Copy     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev day"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next day"),
	),
	Focus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "list/grid"),
	),
	Grab: key.NewBinding(
		key.WithKeys(" ", "m"),
		key.WithHelp("space", "pick up"),
	),
	Drop: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "drop"),
	),
	Return: key.NewBinding(
		key.WithKeys("backspace", "x"),
		key.WithHelp("x", "unschedule"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel drag"),
	),
	PrevWeek: key.NewBinding(
		key.WithKeys("[", "p"),
		key.WithHelp("[", "prev week"),
	),
	NextWeek: key.NewBinding(
		key.WithKeys("]", "n"),
		key.WithHelp("]", "next week"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "this week"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy agenda"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.Drop, k.Cancel, k.PrevWeek, k.NextWeek, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Focus},
		{k.Grab, k.Drop, k.Return, k.Cancel},
		{k.PrevWeek, k.NextWeek, k.Today, k.Copy},
		{k.Help, k.Quit},
	}
}
