package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "info", Format: "text"}, &buf)

	log.Info("test message")
	log.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "msg=\"test message\"") {
		t.Errorf("expected text log output with info level and message, got: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered at info level, got: %s", out)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "debug", Format: "json"}, &buf)

	log.Debug("test message")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal JSON log: %v, output: %s", err, buf.String())
	}
	if entry["level"] != "DEBUG" || entry["msg"] != "test message" {
		t.Errorf("expected JSON log output with debug level and message, got: %v", entry)
	}
}

func TestNewLoggerBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "loud", Format: "text"}, &buf)

	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected filtering with fallback level, got: %s", out)
	}
}
