package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConsoleHandlerPromotesComponentAndJob(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger = NewComponentLogger(logger, "worker")
	logger.Info("fetch complete", String(FieldJobID, "3f2a9c1e-aaaa-bbbb"), String("path", "a b.mp3"))

	line := buf.String()
	if !strings.Contains(line, "INFO worker[3f2a9c1e]: fetch complete") {
		t.Fatalf("unexpected prefix: %q", line)
	}
	if !strings.Contains(line, `path="a b.mp3"`) {
		t.Fatalf("expected quoted value: %q", line)
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "job_id=") {
		t.Fatalf("promoted keys should not repeat: %q", line)
	}
}

func TestConsoleHandlerKeepsJobWithoutComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", String(FieldJobID, "abc"))
	if !strings.Contains(buf.String(), "job_id=abc") {
		t.Fatalf("job id missing: %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("warn missing: %q", buf.String())
	}
}

func TestJSONHandlerFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("submitted", String(FieldJobID, "abc"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["level"] != "info" {
		t.Fatalf("level = %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if payload[FieldJobID] != "abc" {
		t.Fatalf("job_id = %v", payload[FieldJobID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsJobID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := WithJobID(context.Background(), "job-1")
	WithContext(ctx, logger).Info("event")
	if !strings.Contains(buf.String(), `"job_id":"job-1"`) {
		t.Fatalf("job id missing: %s", buf.String())
	}
	if id, ok := JobIDFromContext(context.Background()); ok || id != "" {
		t.Fatal("empty context should not carry job id")
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	WarnWithContext(logger, "cleanup failed", "artifact_purge_failed", Error(errors.New("boom")))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{FieldEventType, FieldErrorHint, FieldImpact, "error"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing %s in %v", key, payload)
		}
	}
	if payload[FieldEventType] != "artifact_purge_failed" {
		t.Fatalf("event_type = %v", payload[FieldEventType])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewComponentLogger(nil, "x")
	logger.Error("nothing")
}
