package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriter_json_format(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.Info("hello", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "hello" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewWithWriter_text_format(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "text")

	log.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text format, got %s", buf.String())
	}
}

func TestNewWithWriter_level_filtering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level: %s", buf.String())
	}

	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn should pass at warn level")
	}
}

func TestParseLevel_default(t *testing.T) {
	if got := parseLevel("nonsense"); got != parseLevel("info") {
		t.Errorf("unknown level should default to info, got %v", got)
	}
}
