// Package logging builds the agent's structured JSON logger on log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Attribute keys whose values are masked with SanitizeToken wherever they
// are logged.
var secretKeys = map[string]bool{
	"token":         true,
	"auth_token":    true,
	"authorization": true,
	"remote_token":  true,
}

// NewLogger returns the agent's stdout logger.
// Supported levels: debug, info, warn, error
func NewLogger(level string) *slog.Logger {
	return New(os.Stdout, ParseLevel(level))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a JSON logger writing to w. The CLI passes stderr so command
// output on stdout stays machine readable.
func New(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: redact,
	}))
}

func redact(groups []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, SanitizeToken(a.Value.String()))
	}
	return a
}

func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithComponent tags every record with the subsystem that emitted it
// (api, catalog, save, ffmpeg, remote, watcher, tray).
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

func WithSaveID(logger *slog.Logger, saveID string) *slog.Logger {
	return logger.With("save_id", saveID)
}

func WithFileID(logger *slog.Logger, fileID string) *slog.Logger {
	return logger.With("file_id", fileID)
}

// SanitizeToken keeps the first and last four characters of a token.
// Anything of eight characters or fewer becomes "****".
func SanitizeToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizePath replaces the user's home directory prefix with "~".
func SanitizePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rest
	}
	return path
}
