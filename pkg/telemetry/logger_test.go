package telemetry_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tetherlink/tetherlink/pkg/telemetry"
)

func TestLoggerEmitsJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.NewLogger(&buf, false)

	logger.Info("handshake established", telemetry.Fields{"session_id": "abc123"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "handshake established" {
		t.Fatalf("got message %v, want %q", entry["message"], "handshake established")
	}
	if entry["session_id"] != "abc123" {
		t.Fatalf("got session_id %v, want abc123", entry["session_id"])
	}
}

func TestNamedNestsComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := telemetry.NewLogger(&buf, false).Named("session").Named("handshake")

	logger.Debug("step 1")
	if !strings.Contains(buf.String(), `"component":"handshake"`) {
		t.Fatalf("expected nested component field, got %q", buf.String())
	}
}

func TestNullLoggerDiscardsOutput(t *testing.T) {
	logger := telemetry.NullLogger()
	logger.Error("should not appear anywhere")
}
