package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/hexaboard/internal/domain"
)

type Config struct {
	Board    BoardConfig    `toml:"board"`
	Confirm  ConfirmConfig  `toml:"confirm"`
	Server   ServerConfig   `toml:"server"`
	Activity ActivityConfig `toml:"activity"`
	Logging  LoggingConfig  `toml:"logging"`
}

type BoardConfig struct {
	Title              string         `toml:"title"`
	DefaultColumnTitle string         `toml:"default_column_title"`
	Columns            []ColumnConfig `toml:"columns"`
}

type ColumnConfig struct {
	ID    string       `toml:"id"`
	Title string       `toml:"title"`
	Tasks []TaskConfig `toml:"tasks"`
}

type TaskConfig struct {
	ID    string `toml:"id"`
	Title string `toml:"title"`
}

// ConfirmConfig toggles the confirmation prompt per gesture in the TUI.
type ConfirmConfig struct {
	Drag         bool `toml:"drag"`
	ColumnMove   bool `toml:"column_move"`
	DeleteTask   bool `toml:"delete_task"`
	DeleteColumn bool `toml:"delete_column"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type ActivityConfig struct {
	Enabled bool `toml:"enabled"`
	Limit   int  `toml:"limit"`
}

type LoggingConfig struct {
	Level   string               `toml:"level"`
	DevFile LoggingDevFileConfig `toml:"dev_file"`
}

type LoggingDevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

func defaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{
			ID:    "backlog",
			Title: "Backlog",
			Tasks: []TaskConfig{
				{ID: "task-1", Title: "Create project structure"},
				{ID: "task-2", Title: "Setup development environment"},
			},
		},
		{
			ID:    "in-development",
			Title: "In Development",
			Tasks: []TaskConfig{{ID: "task-3", Title: "Implement drag and drop"}},
		},
		{ID: "review", Title: "Review"},
		{
			ID:    "complete",
			Title: "Complete",
			Tasks: []TaskConfig{{ID: "task-4", Title: "Initial project setup"}},
		},
	}
}

func Default() Config {
	return Config{
		Board: BoardConfig{
			Title:              "Kanban Board",
			DefaultColumnTitle: domain.DefaultColumnTitle,
			Columns:            defaultColumns(),
		},
		Confirm: ConfirmConfig{
			Drag:         true,
			ColumnMove:   true,
			DeleteTask:   true,
			DeleteColumn: true,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Activity: ActivityConfig{
			Enabled: true,
			Limit:   50,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: LoggingDevFileConfig{
				Enabled: true,
				Dir:     ".hexaboard/log",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// Configured columns replace the default seed instead of extending it.
	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if cfg.Board.Columns == nil {
		cfg.Board.Columns = slices.Clone(defaults.Board.Columns)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	seenIDs := map[string]string{}
	for colIdx, col := range c.Board.Columns {
		id := strings.TrimSpace(col.ID)
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", colIdx)
		}
		if strings.TrimSpace(col.Title) == "" {
			return fmt.Errorf("board.columns[%d].title is required", colIdx)
		}
		if prev, ok := seenIDs[id]; ok {
			return fmt.Errorf("board.columns[%d].id %q is already used by %s", colIdx, id, prev)
		}
		seenIDs[id] = fmt.Sprintf("board.columns[%d]", colIdx)
		for taskIdx, task := range col.Tasks {
			taskID := strings.TrimSpace(task.ID)
			if taskID == "" {
				return fmt.Errorf("board.columns[%d].tasks[%d].id is required", colIdx, taskIdx)
			}
			if strings.TrimSpace(task.Title) == "" {
				return fmt.Errorf("board.columns[%d].tasks[%d].title is required", colIdx, taskIdx)
			}
			if prev, ok := seenIDs[taskID]; ok {
				return fmt.Errorf("board.columns[%d].tasks[%d].id %q is already used by %s", colIdx, taskIdx, taskID, prev)
			}
			seenIDs[taskID] = fmt.Sprintf("board.columns[%d].tasks[%d]", colIdx, taskIdx)
		}
	}

	if c.Activity.Limit < 0 {
		return fmt.Errorf("activity.limit must be >= 0")
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if level != "" && !slices.Contains(logLevels, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when logging.dev_file.enabled is true")
	}
	return nil
}

// SeedBoard converts the configured columns into the initial board snapshot.
func (c Config) SeedBoard() (domain.Board, error) {
	columns := make([]domain.Column, 0, len(c.Board.Columns))
	for _, colCfg := range c.Board.Columns {
		col, err := domain.NewColumn(colCfg.ID, colCfg.Title)
		if err != nil {
			return domain.Board{}, fmt.Errorf("seed column %q: %w", colCfg.ID, err)
		}
		for _, taskCfg := range colCfg.Tasks {
			task, err := domain.NewTask(taskCfg.ID, taskCfg.Title)
			if err != nil {
				return domain.Board{}, fmt.Errorf("seed task %q: %w", taskCfg.ID, err)
			}
			col.Tasks = append(col.Tasks, task)
		}
		columns = append(columns, col)
	}
	board := domain.NewBoard(columns...)
	if err := board.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("seed board: %w", err)
	}
	return board, nil
}

// ErrConfigExists reports that Write refused to replace an existing file.
var ErrConfigExists = errors.New("config file already exists")

// Write encodes cfg as TOML at path, creating parent directories.
func Write(path string, cfg Config, overwrite bool) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is empty")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		}
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
