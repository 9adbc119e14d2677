package domain

import "strings"

// Task is one titled unit of work owned by exactly one column.
type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NewTask constructs a task with a trimmed id and title.
func NewTask(id, title string) (Task, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Task{}, ErrInvalidID
	}
	if title == "" {
		return Task{}, ErrInvalidTitle
	}
	return Task{ID: id, Title: title}, nil
}

// normalizeTitle trims raw user input and reports whether anything is left.
func normalizeTitle(raw string) (string, bool) {
	title := strings.TrimSpace(raw)
	return title, title != ""
}
