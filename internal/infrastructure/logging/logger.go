package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/door-core/internal/infrastructure/config"
)

// serviceName tags every log line so aggregated streams can be filtered
// back down to Door Core.
const serviceName = "doorcore"

// Logger wraps slog.Logger with Door Core's default fields. Safe for
// concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of config.yaml: level
// filtering, JSON or text output, stdout or stderr destination, and the
// service/version fields attached to every record.
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := newHandler(cfg.Format, outputFor(cfg.Output), parseLevel(cfg.Level))

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

func outputFor(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// newHandler picks the record format. JSON is the default; "text" is
// for humans watching a dev console.
func newHandler(format string, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// levelNames are the accepted values for logging.level in config.yaml.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps a config string to a slog level. Unrecognised values
// fall back to info rather than failing startup.
func parseLevel(level string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// With returns a child logger carrying additional default attributes:
//
//	mqttLog := log.With("component", "mqtt")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the bootstrap logger for the window before config loads:
// JSON to stdout at info level, version "dev". Replaced as soon as
// config.Load succeeds.
func Default() *Logger {
	cfg := config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}
	return New(cfg, "dev")
}
