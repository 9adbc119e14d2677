package domain

import (
	"slices"
	"strings"
)

// DefaultColumnTitle is used for columns added without an explicit title.
const DefaultColumnTitle = "New Column"

// Column represents one named, ordered bucket of tasks.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// NewColumn constructs an empty column.
func NewColumn(id, title string) (Column, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Column{}, ErrInvalidID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	return Column{ID: id, Title: title, Tasks: []Task{}}, nil
}

// TaskIndex returns the position of taskID in the column, or -1.
func (c Column) TaskIndex(taskID string) int {
	return slices.IndexFunc(c.Tasks, func(t Task) bool { return t.ID == taskID })
}

// Task returns the task with the given id.
func (c Column) Task(taskID string) (Task, bool) {
	idx := c.TaskIndex(taskID)
	if idx < 0 {
		return Task{}, false
	}
	return c.Tasks[idx], true
}

// clone copies the task slice so the result shares no backing array with c.
func (c Column) clone() Column {
	out := c
	out.Tasks = make([]Task, len(c.Tasks))
	copy(out.Tasks, c.Tasks)
	return out
}
