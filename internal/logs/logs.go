package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process logger. Output goes to stdout and, when LOG_FILE is
// set, to a rotated file. JSON is used outside development.
func New(cfg *config.Config) *slog.Logger {
	writers := []io.Writer{os.Stdout}
	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		})
	}
	return newLogger(io.MultiWriter(writers...), cfg).With(
		slog.String("service", "mindnest-backend"),
		slog.String("env", cfg.Environment),
	)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	isDev := cfg.Environment == "development"
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.LogLevel),
		AddSource: isDev,
	}
	if strings.EqualFold(cfg.LogFormat, "json") || !isDev {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
