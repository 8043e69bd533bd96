// Package logger provides a process-wide leveled file logger.
//
// The terminal is owned by the UI, so nothing is ever written to stdout or
// stderr. Until Init is called every call is a no-op.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LevelDebug is for verbose diagnostic output.
	LevelDebug LogLevel = iota
	// LevelInfo is for general operational messages.
	LevelInfo
	// LevelWarning is for recoverable problems.
	LevelWarning
	// LevelError is for failures.
	LevelError
)

// String returns the lowercase name of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name to a LogLevel. Unknown names map to
// LevelWarning.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelWarning
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

var (
	mu     sync.Mutex
	out    io.Closer
	level  = new(slog.LevelVar)
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Init opens path in append mode and routes all messages at or above lvl
// into it. Parent directories are created as needed.
func Init(path string, lvl LogLevel) error {
	if path == "" {
		return fmt.Errorf("logger: empty log path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logger: open %s: %w", path, err)
	}
	InitWriter(f, lvl)

	mu.Lock()
	out = f
	mu.Unlock()
	return nil
}

// InitWriter routes messages into w. Tests use it with a bytes.Buffer.
func InitWriter(w io.Writer, lvl LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		_ = out.Close()
		out = nil
	}
	level.Set(lvl.slogLevel())
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Close flushes and closes the log file, if any. Subsequent messages are
// discarded.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		_ = out.Close()
		out = nil
	}
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

func log(lvl slog.Level, format string, args ...any) {
	l := current()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, fmt.Sprintf(format, args...))
}

// Debug logs a formatted debug message.
func Debug(format string, args ...any) { log(slog.LevelDebug, format, args...) }

// Info logs a formatted informational message.
func Info(format string, args ...any) { log(slog.LevelInfo, format, args...) }

// Warning logs a formatted warning.
func Warning(format string, args ...any) { log(slog.LevelWarn, format, args...) }

// Error logs a formatted error message.
func Error(format string, args ...any) { log(slog.LevelError, format, args...) }

// ErrorWithErr logs a formatted error message with err attached.
func ErrorWithErr(err error, format string, args ...any) {
	l := current()
	if !l.Enabled(context.Background(), slog.LevelError) {
		return
	}
	l.Error(fmt.Sprintf(format, args...), "err", err)
}
