package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel переводит строковый уровень (debug, info, warn, error) в slog.Level.
// Неизвестные значения дают info.
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

// NewLogger создает корневой логгер сервера и делает его логгером по умолчанию.
// format: "json" (по умолчанию) или "text".
func NewLogger(level, format string) *slog.Logger {
	return New(os.Stdout, level, format)
}

// New создает логгер, пишущий в w
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}
