package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps an slog.Logger that writes to a rotating file under
// <repo>/.entirecontext/logs/ec.log. Hook handlers use it to record
// caught errors without disturbing the host's stdin/stdout contract
// (spec.md §9 Open Question: hooks always exit 0, but misbehaviour must
// still be observable).
type Logger struct {
	*slog.Logger
	writer *lumberjack.Logger
}

// New creates a Logger rooted at repoDir (typically the
// ".entirecontext" directory). level is one of debug/info/warn/error,
// defaulting to info on an unrecognized value.
func New(repoDir string, level string) *Logger {
	logDir := filepath.Join(repoDir, "logs")
	_ = os.MkdirAll(logDir, 0o750)

	w := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "ec.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{Logger: slog.New(handler), writer: w}
}

// NewDiscard returns a Logger that drops all output, used when no repo
// directory is available yet (e.g. before `init`).
func NewDiscard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 100}))}
}

// Close flushes and closes the underlying rotating file.
func (l *Logger) Close() error {
	if l.writer == nil {
		return nil
	}
	return l.writer.Close()
}

// WithContext returns a logger with the session/repo/component found in
// ctx attached as structured attributes.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	attrs := make([]any, 0, 6)
	if s := SessionIDFromContext(ctx); s != "" {
		attrs = append(attrs, "session_id", s)
	}
	if r := RepoPathFromContext(ctx); r != "" {
		attrs = append(attrs, "repo_path", r)
	}
	if c := ComponentFromContext(ctx); c != "" {
		attrs = append(attrs, "component", c)
	}
	return l.Logger.With(attrs...)
}

func parseLevel(level string) slog.Level {
	switch level {
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
