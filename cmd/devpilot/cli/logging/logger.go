// Package logging provides structured logging for the devpilot CLI using slog.
//
// Logs go to a JSON-lines file under .devpilot/logs so automation runs leave
// an inspectable trail without polluting command output. Level comes from
// DEVPILOT_LOG_LEVEL (debug, info, warn, error); default is info.
package logging

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"devpilot.io/cli/cmd/devpilot/cli/paths"
)

// LogLevelEnvVar controls the log level.
const LogLevelEnvVar = "DEVPILOT_LOG_LEVEL"

var (
	mu        sync.RWMutex
	logger    *slog.Logger
	logFile   *os.File
	bufWriter *bufio.Writer
)

type ctxKey string

const ticketKey ctxKey = "ticket"

// WithTicket attaches a ticket key to the context; log calls pick it up
// automatically.
func WithTicket(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ticketKey, key)
}

// Init opens the log file under the repository root. Safe to call when
// already initialized; the previous file is closed first.
func Init(repoRoot string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	dir := filepath.Join(repoRoot, paths.DevpilotLogDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "devpilot.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	logFile = f
	bufWriter = bufio.NewWriter(f)
	logger = slog.New(slog.NewJSONHandler(bufWriter, &slog.HandlerOptions{Level: levelFromEnv()}))
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if bufWriter != nil {
		bufWriter.Flush()
		bufWriter = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = nil
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(LogLevelEnvVar)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs at debug level with context attributes.
func Debug(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelDebug, msg, args...) }

// Info logs at info level with context attributes.
func Info(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelInfo, msg, args...) }

// Warn logs at warn level with context attributes.
func Warn(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelWarn, msg, args...) }

// Error logs at error level with context attributes.
func Error(ctx context.Context, msg string, args ...any) { log(ctx, slog.LevelError, msg, args...) }

func log(ctx context.Context, level slog.Level, msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return
	}
	if ticket, ok := ctx.Value(ticketKey).(string); ok && ticket != "" {
		args = append(args, slog.String("ticket", ticket))
	}
	l.Log(ctx, level, msg, args...)
}
