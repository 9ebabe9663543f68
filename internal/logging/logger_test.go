package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"galleria/internal/logging"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "scheduler")
	logger.Info("gallery scheduled", logging.String(logging.FieldGalleryID, "g1"))

	line := buf.String()
	if !strings.Contains(line, "INFO scheduler: gallery scheduled") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "gallery_id=g1") {
		t.Fatalf("missing gallery_id attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("failure recorded", logging.String("reason", "rate limited"))
	if !strings.Contains(buf.String(), `reason="rate limited"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("gallery added", logging.String(logging.FieldGalleryID, "g2"))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["msg"] != "gallery added" {
		t.Fatalf("msg = %v", decoded["msg"])
	}
	if decoded["level"] != "info" {
		t.Fatalf("level = %v", decoded["level"])
	}
	if decoded["gallery_id"] != "g2" {
		t.Fatalf("gallery_id = %v", decoded["gallery_id"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatal("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Fatal("warn line missing")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
