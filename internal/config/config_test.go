package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Board.DefaultColumnTitle != "New Column" {
		t.Fatalf("unexpected default column title %q", cfg.Board.DefaultColumnTitle)
	}
	if len(cfg.Board.Columns) != 4 {
		t.Fatalf("expected 4 seed columns, got %d", len(cfg.Board.Columns))
	}
	if !cfg.Confirm.Drag || !cfg.Confirm.ColumnMove || !cfg.Confirm.DeleteTask || !cfg.Confirm.DeleteColumn {
		t.Fatal("expected every confirmation enabled by default")
	}
	if cfg.Server.APIEndpoint != "/api/v1" || cfg.Server.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected server endpoints %#v", cfg.Server)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestDefaultSeedBoard(t *testing.T) {
	board, err := Default().SeedBoard()
	if err != nil {
		t.Fatalf("SeedBoard() error = %v", err)
	}
	if got := board.TaskCount(); got != 4 {
		t.Fatalf("expected 4 seed tasks, got %d", got)
	}
	loc, ok := board.FindTask("task-3")
	if !ok || loc.ColumnID != "in-development" || loc.Index != 0 {
		t.Fatalf("unexpected task-3 location %#v (found=%v)", loc, ok)
	}
	review, ok := board.Column("review")
	if !ok || len(review.Tasks) != 0 {
		t.Fatalf("expected empty review column, got %#v", review)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Board.Title != defaults.Board.Title || len(cfg.Board.Columns) != 4 {
		t.Fatalf("expected defaults, got %#v", cfg.Board)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[board]
title = "Sprint"

[[board.columns]]
id = "todo"
title = "To Do"

[[board.columns.tasks]]
id = "a"
title = "Write docs"

[[board.columns]]
id = "done"
title = "Done"

[confirm]
drag = false

[server]
http_bind = "127.0.0.1:9999"

[logging]
level = "debug"
`)

	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Board.Title != "Sprint" {
		t.Fatalf("unexpected title %q", cfg.Board.Title)
	}
	if len(cfg.Board.Columns) != 2 || cfg.Board.Columns[0].ID != "todo" || len(cfg.Board.Columns[0].Tasks) != 1 {
		t.Fatalf("expected configured columns to replace defaults, got %#v", cfg.Board.Columns)
	}
	if cfg.Confirm.Drag {
		t.Fatal("expected drag confirmation disabled from config override")
	}
	if !cfg.Confirm.DeleteTask {
		t.Fatal("expected untouched confirmations to keep defaults")
	}
	if cfg.Server.HTTPBind != "127.0.0.1:9999" || cfg.Server.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected server config %#v", cfg.Server)
	}
	if cfg.Board.DefaultColumnTitle != "New Column" {
		t.Fatalf("expected default column title kept, got %q", cfg.Board.DefaultColumnTitle)
	}
}

func TestLoadWithoutColumnsKeepsDefaultSeed(t *testing.T) {
	path := writeConfig(t, `
[board]
title = "Only a title"
`)
	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Board.Columns) != 4 {
		t.Fatalf("expected default seed columns, got %d", len(cfg.Board.Columns))
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
[[board.columns]]
id = "x"
title = "X"

[[board.columns.tasks]]
id = "x"
title = "task"
`,
		"blank column title": `
[[board.columns]]
id = "x"
title = "  "
`,
		"missing task id": `
[[board.columns]]
id = "x"
title = "X"

[[board.columns.tasks]]
title = "task"
`,
		"negative limit": `
[activity]
limit = -1
`,
		"bad level": `
[logging]
level = "loud"
`,
		"dev file without dir": `
[logging.dev_file]
enabled = true
dir = ""
`,
		"malformed": `[board`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content), Default()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSeedBoardRejectsInvalidColumns(t *testing.T) {
	cfg := Default()
	cfg.Board.Columns = []ColumnConfig{{ID: "", Title: "Nameless"}}
	_, err := cfg.SeedBoard()
	if err == nil || !strings.Contains(err.Error(), "seed column") {
		t.Fatalf("expected seed column error, got %v", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}

func TestWriteThenLoad(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Board.Title = "Ops"
	cfg.Activity.Limit = 7
	if err := Write(target, cfg, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Load(target, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Board.Title != "Ops" || got.Activity.Limit != 7 || len(got.Board.Columns) != len(cfg.Board.Columns) {
		t.Fatalf("unexpected round-tripped config %#v", got)
	}
	if err := Write(target, cfg, false); !errors.Is(err, ErrConfigExists) {
		t.Fatalf("second Write() error = %v, want ErrConfigExists", err)
	}
	if err := Write(target, Default(), true); err != nil {
		t.Fatalf("Write(overwrite) error = %v", err)
	}
}
