package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit         key.Binding
	toggleHelp   key.Binding
	moveLeft     key.Binding
	moveRight    key.Binding
	moveUp       key.Binding
	moveDown     key.Binding
	addColumn    key.Binding
	renameColumn key.Binding
	deleteColumn key.Binding
	addTask      key.Binding
	renameTask   key.Binding
	deleteTask   key.Binding
	moveToColumn key.Binding
	grabTask     key.Binding
	dropTask     key.Binding
	cancelDrag   key.Binding
	copyTitle    key.Binding
	activityLog  key.Binding
	markdownView key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addColumn:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "add column")),
		renameColumn: key.NewBinding(key.WithKeys("E", "shift+e"), key.WithHelp("E", "rename column")),
		deleteColumn: key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "delete column")),
		addTask:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		renameTask:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename task")),
		deleteTask:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		moveToColumn: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "move to column")),
		grabTask:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "drag task")),
		dropTask:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		cancelDrag:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		copyTitle:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		activityLog:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "activity log")),
		markdownView: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "markdown view")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.renameTask, k.deleteTask, k.grabTask, k.moveToColumn, k.addColumn, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.renameTask, k.deleteTask, k.copyTitle, k.activityLog, k.markdownView, k.toggleHelp, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.grabTask, k.dropTask, k.cancelDrag, k.moveToColumn},
		{k.addColumn, k.renameColumn, k.deleteColumn},
	}
}

// dragHelp lists the bindings active while a task is grabbed.
type dragHelp struct {
	keys keyMap
}

// ShortHelp handles short help.
func (d dragHelp) ShortHelp() []key.Binding {
	return []key.Binding{d.keys.moveLeft, d.keys.moveRight, d.keys.moveUp, d.keys.moveDown, d.keys.dropTask, d.keys.cancelDrag}
}

// FullHelp handles full help.
func (d dragHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{d.ShortHelp()}
}
