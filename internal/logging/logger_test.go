package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lockbox/internal/config"
	"lockbox/internal/logging"
)

func TestNewFromConfigMirrorsToLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("mirrored line")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "lockbox.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "mirrored line") {
		t.Fatalf("expected log file to contain message, got %q", content)
	}
	if strings.Contains(string(content), "\x1b[") {
		t.Fatalf("expected no ANSI escapes in log file, got %q", content)
	}
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "assembler").Info("exported track",
		logging.String("speaker", "kristine"),
		logging.String("path", "/tmp/Finale Kristine.mp3"),
		logging.Int("segments", 3),
	)
	logger.Debug("hidden debug line")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO  assembler: exported track") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "speaker=kristine") || !strings.Contains(line, "segments=3") {
		t.Fatalf("expected structured fields, got %q", line)
	}
	if !strings.Contains(line, `path="/tmp/Finale Kristine.mp3"`) {
		t.Fatalf("expected quoted value with spaces, got %q", line)
	}
	if strings.Contains(line, "hidden debug line") {
		t.Fatalf("expected debug line to be filtered at info level")
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestJSONLoggerIncludesCorrelationID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, runID := logging.WithRunID(context.Background())
	logging.WithContext(ctx, logger).Warn("unknown speaker", logging.String("speaker", "unknown"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &payload); err != nil {
		t.Fatalf("decode json log line: %v (%q)", err, content)
	}
	if payload["correlation_id"] != runID {
		t.Fatalf("expected correlation_id %q, got %v", runID, payload["correlation_id"])
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "segment skipped", "unknown_speaker")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "event_type=unknown_speaker") {
		t.Fatalf("expected event_type field, got %q", content)
	}
	if !strings.Contains(string(content), "impact=") {
		t.Fatalf("expected impact field, got %q", content)
	}
}
