package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/evanschultz/hexaboard/internal/config"
)

const defaultDevLogDir = ".hexaboard/log"

// logSink is one destination. Console sinks go quiet while the TUI owns the terminal.
type logSink struct {
	*charmLog.Logger
	console bool
}

// runtimeLogger writes every event to stderr and, in dev mode, to a daily logfmt file.
type runtimeLogger struct {
	sinks   []logSink
	muted   atomic.Bool
	file    *os.File
	devPath string
}

func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(firstNonEmpty(strings.TrimSpace(cfg.Level), "info"))
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	newSink := func(w io.Writer, f charmLog.Formatter) *charmLog.Logger {
		return charmLog.NewWithOptions(w, charmLog.Options{
			Level:           level,
			Prefix:          appName,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       f,
		})
	}

	l := &runtimeLogger{sinks: []logSink{{Logger: newSink(stderr, charmLog.TextFormatter), console: true}}}
	if !devMode || !cfg.DevFile.Enabled {
		return l, nil
	}

	if now == nil {
		now = time.Now
	}
	path, err := dailyLogPath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	l.sinks = append(l.sinks, logSink{Logger: newSink(f, charmLog.LogfmtFormatter)})
	l.file = f
	l.devPath = path
	return l, nil
}

// Component returns a logger tagged with name for packages that accept a
// single *log.Logger. It picks the first sink that is currently audible.
func (l *runtimeLogger) Component(name string) *charmLog.Logger {
	if l == nil {
		return nil
	}
	for _, s := range l.sinks {
		if l.audible(s) {
			return s.With("component", name)
		}
	}
	return nil
}

// SetConsoleEnabled mutes or restores the stderr sink.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l != nil {
		l.muted.Store(!enabled)
	}
}

func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devPath
}

// Close releases the dev log file.
func (l *runtimeLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	return f.Close()
}

func (l *runtimeLogger) Debug(msg string, kv ...any) { l.log(charmLog.DebugLevel, msg, kv) }
func (l *runtimeLogger) Info(msg string, kv ...any)  { l.log(charmLog.InfoLevel, msg, kv) }
func (l *runtimeLogger) Warn(msg string, kv ...any)  { l.log(charmLog.WarnLevel, msg, kv) }
func (l *runtimeLogger) Error(msg string, kv ...any) { l.log(charmLog.ErrorLevel, msg, kv) }

func (l *runtimeLogger) log(level charmLog.Level, msg string, kv []any) {
	if l == nil {
		return
	}
	for _, s := range l.sinks {
		if l.audible(s) {
			s.Log(level, msg, kv...)
		}
	}
}

func (l *runtimeLogger) audible(s logSink) bool {
	return !s.console || !l.muted.Load()
}

// dailyLogPath names one file per app and UTC day. Relative dirs are anchored
// at the enclosing module or repository root so runs from subdirectories share it.
func dailyLogPath(dir, appName string, day time.Time) (string, error) {
	dir = firstNonEmpty(strings.TrimSpace(dir), defaultDevLogDir)
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		dir = filepath.Join(projectRoot(cwd), dir)
	}
	name := logStem(appName) + "-" + day.Format("20060102") + ".log"
	return filepath.Join(filepath.Clean(dir), name), nil
}

// projectRoot returns the nearest ancestor of start holding go.mod or .git,
// or start itself when none does.
func projectRoot(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	for dir := start; ; {
		for _, marker := range []string{"go.mod", ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

var logStemReplacer = strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")

// logStem makes appName safe to use as a file name prefix.
func logStem(appName string) string {
	stem := strings.Trim(logStemReplacer.Replace(strings.TrimSpace(appName)), "-")
	return firstNonEmpty(stem, "hexaboard")
}
