package platform

import (
	"path/filepath"
	"testing"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

// TestResolveForPerOS verifies which environment variables override the base dirs.
func TestResolveForPerOS(t *testing.T) {
	cases := []struct {
		name       string
		goos       string
		env        map[string]string
		bases      Bases
		wantConfig string
		wantLog    string
	}{
		{
			name:       "linux xdg",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			bases:      Bases{Config: "/fallback/config", Data: "/fallback/data"},
			wantConfig: filepath.Join("/xdg/config", "hexaboard", "config.toml"),
			wantLog:    filepath.Join("/xdg/data", "hexaboard", "log"),
		},
		{
			name:       "linux without xdg",
			goos:       "linux",
			bases:      Bases{Config: "/home/me/.config", Data: "/home/me/.local/share"},
			wantConfig: filepath.Join("/home/me/.config", "hexaboard", "config.toml"),
			wantLog:    filepath.Join("/home/me/.local/share", "hexaboard", "log"),
		},
		{
			name:       "windows appdata",
			goos:       "windows",
			env:        map[string]string{"APPDATA": `C:\Users\me\AppData\Roaming`, "LOCALAPPDATA": `C:\Users\me\AppData\Local`},
			bases:      Bases{Config: `C:\fallback\config`, Data: `C:\fallback\data`},
			wantConfig: filepath.Join(`C:\Users\me\AppData\Roaming`, "hexaboard", "config.toml"),
			wantLog:    filepath.Join(`C:\Users\me\AppData\Local`, "hexaboard", "log"),
		},
		{
			name:       "darwin ignores xdg",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored", "XDG_DATA_HOME": "/ignored"},
			bases:      Bases{Config: "/Users/me/Library/Application Support", Data: "/Users/me/Library/Application Support"},
			wantConfig: filepath.Join("/Users/me/Library/Application Support", "hexaboard", "config.toml"),
			wantLog:    filepath.Join("/Users/me/Library/Application Support", "hexaboard", "log"),
		},
		{
			name:       "other os uses bases",
			goos:       "freebsd",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored"},
			bases:      Bases{Config: "/cfg", Data: "/data"},
			wantConfig: filepath.Join("/cfg", "hexaboard", "config.toml"),
			wantLog:    filepath.Join("/data", "hexaboard", "log"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ResolveFor(tc.goos, envOf(tc.env), tc.bases, "hexaboard")
			if err != nil {
				t.Fatalf("ResolveFor() error = %v", err)
			}
			if p.ConfigPath != tc.wantConfig {
				t.Fatalf("config path = %q, want %q", p.ConfigPath, tc.wantConfig)
			}
			if p.LogDir != tc.wantLog {
				t.Fatalf("log dir = %q, want %q", p.LogDir, tc.wantLog)
			}
			if p.AppName != "hexaboard" || filepath.Dir(p.LogDir) != p.DataDir {
				t.Fatalf("unexpected paths %#v", p)
			}
		})
	}
}

func TestResolveForRejectsBlankInputs(t *testing.T) {
	if _, err := ResolveFor("linux", nil, Bases{Config: "/cfg", Data: "/data"}, "  "); err == nil {
		t.Fatal("expected error for empty app name")
	}
	if _, err := ResolveFor("darwin", nil, Bases{Data: "/tmp/data"}, "hexaboard"); err == nil {
		t.Fatal("expected error for empty config base")
	}
}

func TestResolveForNilGetenv(t *testing.T) {
	p, err := ResolveFor("linux", nil, Bases{Config: "/cfg", Data: "/data"}, "hexaboard")
	if err != nil {
		t.Fatalf("ResolveFor() error = %v", err)
	}
	if p.DataDir != filepath.Join("/data", "hexaboard") {
		t.Fatalf("data dir = %q", p.DataDir)
	}
}

func TestResolveDefaultAndDevNames(t *testing.T) {
	p, err := Resolve(Options{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.ConfigPath == "" || p.LogDir == "" || p.DataDir == "" || p.AppName != "hexaboard" {
		t.Fatalf("expected non-empty default paths, got %#v", p)
	}

	dev, err := Resolve(Options{AppName: " board ", DevMode: true})
	if err != nil {
		t.Fatalf("Resolve(dev) error = %v", err)
	}
	if dev.AppName != "board-dev" || filepath.Base(filepath.Dir(dev.ConfigPath)) != "board-dev" {
		t.Fatalf("expected dev app dir, got %#v", dev)
	}
	if filepath.Base(filepath.Dir(dev.LogDir)) != "board-dev" {
		t.Fatalf("expected dev log dir, got %q", dev.LogDir)
	}
}
