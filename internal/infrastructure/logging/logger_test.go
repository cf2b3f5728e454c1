package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/nerrad567/door-core/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"json to stdout", config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text to stderr", config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"unknown everything", config.LoggingConfig{Level: "loud", Format: "xml", Output: "printer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if logger := New(tt.cfg, "1.0.0"); logger == nil {
				t.Fatal("New() = nil")
			}
		})
	}
}

func TestOutputFor(t *testing.T) {
	tests := []struct {
		input string
		want  io.Writer
	}{
		{"stderr", os.Stderr},
		{"STDERR", os.Stderr},
		{"stdout", os.Stdout},
		{"", os.Stdout},
		{"syslog", os.Stdout}, // unsupported destinations fall back
	}

	for _, tt := range tests {
		if got := outputFor(tt.input); got != tt.want {
			t.Errorf("outputFor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo}, // unrecognised falls back to info
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer

	t.Run("text format", func(t *testing.T) {
		buf.Reset()
		h := newHandler("text", &buf, slog.LevelInfo)
		slog.New(h).Info("door opened", "door_id", "front")

		if out := buf.String(); out == "" || out[0] == '{' {
			t.Errorf("text handler produced %q", out)
		}
	})

	t.Run("default is json", func(t *testing.T) {
		buf.Reset()
		h := newHandler("", &buf, slog.LevelInfo)
		slog.New(h).Info("door opened", "door_id", "front")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("default handler did not emit JSON: %v", err)
		}
		if entry["door_id"] != "front" {
			t.Errorf("door_id = %v, want front", entry["door_id"])
		}
	})

	t.Run("level filters", func(t *testing.T) {
		buf.Reset()
		h := newHandler("json", &buf, slog.LevelWarn)
		slog.New(h).Info("below threshold")

		if buf.Len() != 0 {
			t.Errorf("info record passed a warn-level handler: %q", buf.String())
		}
	})
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	handler := newHandler("json", &buf, slog.LevelInfo)
	logger := &Logger{Logger: slog.New(handler)}

	child := logger.With("component", "mqtt")
	if child == logger {
		t.Fatal("With() returned the parent logger")
	}

	child.Info("connected")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log output: %v", err)
	}
	if entry["component"] != "mqtt" {
		t.Errorf("component = %v, want mqtt", entry["component"])
	}
}

func TestDefault(t *testing.T) {
	if logger := Default(); logger == nil {
		t.Fatal("Default() = nil")
	}
}

func TestDefaultFields(t *testing.T) {
	// New writes to stdout, so assemble the same handler chain against
	// a buffer to assert the attached fields.
	var buf bytes.Buffer
	handler := newHandler("json", &buf, slog.LevelInfo).WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", "test"),
	})

	logger := &Logger{Logger: slog.New(handler)}
	logger.Info("doors initialised", "total", 2)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log output: %v", err)
	}

	if entry["service"] != "doorcore" {
		t.Errorf("service = %v, want doorcore", entry["service"])
	}
	if entry["version"] != "test" {
		t.Errorf("version = %v, want test", entry["version"])
	}
	if entry["msg"] != "doors initialised" {
		t.Errorf("msg = %v, want doors initialised", entry["msg"])
	}
	if entry["total"] != float64(2) {
		t.Errorf("total = %v, want 2", entry["total"])
	}
}
