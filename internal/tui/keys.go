package tui

import "github.com/charmbracelet/bubbles/key"

type boardKeys struct {
	Left, Right, Up, Down key.Binding
	Grab, Drop, Cancel    key.Binding
	NewColumn, Rename     key.Binding
	DeleteColumn          key.Binding
	NewTask, Edit, Delete key.Binding
	Details, Back         key.Binding
}

var keys = boardKeys{
	Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
	Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Grab:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
	Drop:         key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space/enter", "drop")),
	Cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	NewColumn:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new column")),
	Rename:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename column")),
	DeleteColumn: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "delete column")),
	NewTask:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
	Edit:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Details:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Back:         key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q/esc", "back")),
}

// dragKeys is shown while a card is held.
type dragKeys struct{}

func (dragKeys) ShortHelp() []key.Binding {
	return []key.Binding{keys.Left, keys.Right, keys.Up, keys.Down, keys.Drop, keys.Cancel}
}

func (d dragKeys) FullHelp() [][]key.Binding { return [][]key.Binding{d.ShortHelp()} }

func (k boardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.NewTask, k.Edit, k.Delete, k.NewColumn, k.Rename, k.DeleteColumn, k.Details, k.Back}
}

func (k boardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Grab, k.Details, k.Back},
		{k.NewTask, k.Edit, k.Delete},
		{k.NewColumn, k.Rename, k.DeleteColumn},
	}
}
