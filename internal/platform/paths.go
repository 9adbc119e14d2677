package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	defaultAppName = "hexaboard"
	configFileName = "config.toml"
)

// Paths are the per-app locations the CLI reads and writes. The board itself
// lives in memory; DataDir only hosts dev log files.
type Paths struct {
	AppName    string
	ConfigPath string
	DataDir    string
	LogDir     string
}

// Options select the app directory name. DevMode appends "-dev" so a
// development build never touches a real config.
type Options struct {
	AppName string
	DevMode bool
}

// Bases are the per-user roots that app directories are created under.
type Bases struct {
	Config string
	Data   string
}

// envOverrides names the variables that replace Bases on each OS.
var envOverrides = map[string]struct{ config, data string }{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

// Resolve computes Paths for the running OS and user.
func Resolve(opts Options) (Paths, error) {
	bases, err := userBases(runtime.GOOS)
	if err != nil {
		return Paths{}, err
	}
	return ResolveFor(runtime.GOOS, os.Getenv, bases, appDirName(opts))
}

// ResolveFor computes Paths from explicit inputs. getenv may be nil.
func ResolveFor(goos string, getenv func(string) string, bases Bases, appName string) (Paths, error) {
	appName = strings.TrimSpace(appName)
	switch {
	case appName == "":
		return Paths{}, errors.New("resolve paths: empty app name")
	case bases.Config == "" || bases.Data == "":
		return Paths{}, errors.New("resolve paths: empty base dir")
	}
	if keys, ok := envOverrides[goos]; ok && getenv != nil {
		bases.Config = firstSet(getenv(keys.config), bases.Config)
		bases.Data = firstSet(getenv(keys.data), bases.Data)
	}

	dataDir := filepath.Join(bases.Data, appName)
	return Paths{
		AppName:    appName,
		ConfigPath: filepath.Join(bases.Config, appName, configFileName),
		DataDir:    dataDir,
		LogDir:     filepath.Join(dataDir, "log"),
	}, nil
}

func appDirName(opts Options) string {
	name := firstSet(strings.TrimSpace(opts.AppName), defaultAppName)
	if opts.DevMode {
		return name + "-dev"
	}
	return name
}

// userBases falls back to ~/.local/share for data on linux and to the
// config root everywhere else.
func userBases(goos string) (Bases, error) {
	configRoot, err := os.UserConfigDir()
	if err != nil {
		return Bases{}, err
	}
	if goos != "linux" {
		return Bases{Config: configRoot, Data: configRoot}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Bases{}, err
	}
	return Bases{Config: configRoot, Data: filepath.Join(home, ".local", "share")}, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
