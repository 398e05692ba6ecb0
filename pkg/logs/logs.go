package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Alijeyrad/simorq_sessions/config"
)

// New builds the process logger. Records fan out to stdout, a rotated file
// and Loki as configured, and carry request metadata from their context.
func New(cfg *config.Config) *slog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg *config.Config, stdout io.Writer) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)
	out := cfg.Logging.Output

	var handlers []slog.Handler
	if w := localWriter(out, stdout); w != nil {
		handlers = append(handlers, formatHandler(cfg, w, level))
	}
	if out.Loki.Enabled {
		handlers = append(handlers, newLokiHandler(cfg, level))
	}

	var h slog.Handler = &multiHandler{handlers: handlers}
	if len(handlers) == 1 {
		h = handlers[0]
	}

	return slog.New(&contextHandler{Handler: h}).With(
		slog.String("service", cfg.Observability.ServiceName),
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("env", cfg.Server.Environment),
	)
}

// localWriter combines stdout and the rotated log file. Stdout is used when
// no other sink is configured so logs are never silently dropped.
func localWriter(out config.OutputConfig, stdout io.Writer) io.Writer {
	var writers []io.Writer
	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		writers = append(writers, stdout)
	}
	if out.File.Enabled {
		writers = append(writers, &lumberjack.Logger{
			Filename:   out.File.Path,
			MaxSize:    out.File.MaxSizeMB,
			MaxBackups: out.File.MaxBackups,
			MaxAge:     out.File.MaxAgeDays,
			Compress:   out.File.Compress,
		})
	}

	switch len(writers) {
	case 0:
		return nil
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

// formatHandler emits text in development unless json is asked for, and
// json everywhere else.
func formatHandler(cfg *config.Config, w io.Writer, level slog.Level) slog.Handler {
	dev := strings.EqualFold(cfg.Server.Environment, "development")
	opts := &slog.HandlerOptions{Level: level, AddSource: dev}
	if dev && !strings.EqualFold(cfg.Logging.Format, "json") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
