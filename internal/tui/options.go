package tui

import "strings"

// ConfirmConfig toggles the confirmation modal per gesture.
type ConfirmConfig struct {
	Drag         bool
	ColumnMove   bool
	DeleteTask   bool
	DeleteColumn bool
}

type Option func(*Model)

func DefaultConfirmConfig() ConfirmConfig {
	return ConfirmConfig{
		Drag:         true,
		ColumnMove:   true,
		DeleteTask:   true,
		DeleteColumn: true,
	}
}

func WithConfirmConfig(cfg ConfirmConfig) Option {
	return func(m *Model) {
		m.confirm = cfg
	}
}

func WithBoardTitle(title string) Option {
	return func(m *Model) {
		if title = strings.TrimSpace(title); title != "" {
			m.boardTitle = title
		}
	}
}

// WithActivity enables the activity log modal. A nil reader keeps it disabled.
func WithActivity(reader ActivityReader, limit int) Option {
	return func(m *Model) {
		m.activity = reader
		if limit > 0 {
			m.activityLimit = limit
		}
	}
}

// WithClipboard replaces the clipboard writer used by the copy-title key.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyToClipboard = write
		}
	}
}
