package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "auth", "warn")

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARNING] [auth]") || !strings.Contains(out, "shown") {
		t.Errorf("expected warning line, got %q", out)
	}

	l.SetLevel("debug")
	if !l.ShouldLog(DEBUG) {
		t.Error("expected debug after SetLevel")
	}
}

func TestLogger_FieldsAreSortedAndCarryTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "auth", "info")

	ctx := context.WithValue(context.Background(), constants.TraceIDKey, "trace-123")
	l.WithFields(ctx, Fields{"user_id": "u1", "action": "login"}).Info("login ok")

	out := buf.String()
	if !strings.Contains(out, "[trace_id=trace-123 action=login user_id=u1]") {
		t.Errorf("unexpected field rendering: %q", out)
	}
}

func TestLogger_ReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "", "info")
	l.Info("started")
	l.WithFields(context.Background(), Fields{"k": "v"}).Infof("entry %d", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, "logger_test.go:") {
			t.Errorf("expected caller location in %q", line)
		}
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if parseLevel("verbose") != INFO {
		t.Error("unknown level must fall back to INFO")
	}
	if parseLevel(" Error ") != ERROR {
		t.Error("level parsing must be case and space insensitive")
	}
}
