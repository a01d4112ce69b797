package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/config"
)

func TestNewLogger_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "info", Format: "JSON"})

	logger.Info("evidence sealed", slog.String("evidence_id", "EV-1"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("json format should produce valid JSON: %v (%s)", err, buf.String())
	}
	if m["msg"] != "evidence sealed" {
		t.Errorf("msg = %v, want %q", m["msg"], "evidence sealed")
	}
	if m["app"] != serviceName {
		t.Errorf("app = %v, want %q", m["app"], serviceName)
	}
	if m["evidence_id"] != "EV-1" {
		t.Errorf("evidence_id = %v, want EV-1", m["evidence_id"])
	}
	if _, ok := m["source"]; ok {
		t.Error("json format should not include source")
	}

	ts, ok := m["time"].(string)
	if !ok {
		t.Fatalf("time = %v, want string", m["time"])
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		t.Fatalf("parse time %q: %v", ts, err)
	}
	if _, offset := parsed.Zone(); offset != 0 {
		t.Errorf("time %q should be UTC", ts)
	}
}

func TestNewLogger_TextIncludesSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "debug", Format: "text"})

	logger.Debug("source test")

	out := buf.String()
	if !strings.Contains(out, "source=") {
		t.Errorf("text format should include source information: %s", out)
	}
	if !strings.Contains(out, "app="+serviceName) {
		t.Errorf("text format should include app attr: %s", out)
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(config.LogConfig{Level: "info", Format: "json"})

	if slog.Default().Handler() != logger.Handler() {
		t.Error("NewLogger should set the returned logger as slog default")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, config.LogConfig{Level: tt.level, Format: "text"})

			logger.Log(context.Background(), tt.want, "should appear")
			if buf.Len() == 0 {
				t.Errorf("expected log output at level %v", tt.want)
			}

			buf.Reset()
			logger.Log(context.Background(), tt.want-1, "should be suppressed")
			if buf.Len() != 0 {
				t.Errorf("level %v should suppress level %v, got: %s", tt.want, tt.want-1, buf.String())
			}
		})
	}
}
