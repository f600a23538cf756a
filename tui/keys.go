package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review key bindings
type KeyMap struct {
	Next        key.Binding
	Prev        key.Binding
	NextSegment key.Binding
	PrevSegment key.Binding
	Incoming    key.Binding
	Current     key.Binding
	Both        key.Binding
	Undo        key.Binding
	AllIncoming key.Binding
	AllCurrent  key.Binding
	Reset       key.Binding
	Finalize    key.Binding
	Quit        key.Binding
}

var reviewKeys = KeyMap{
	Next:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next block")),
	Prev:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "prev block")),
	NextSegment: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next segment")),
	PrevSegment: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev segment")),
	Incoming:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "incoming")),
	Current:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "current")),
	Both:        key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "both")),
	Undo:        key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	AllIncoming: key.NewBinding(key.WithKeys("I"), key.WithHelp("I", "all incoming")),
	AllCurrent:  key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "all current")),
	Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset segment")),
	Finalize:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "finalize")),
	Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "cancel")),
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.NextSegment, k.Incoming, k.Current, k.Both, k.Undo, k.AllIncoming, k.AllCurrent, k.Reset, k.Finalize, k.Quit}
}
