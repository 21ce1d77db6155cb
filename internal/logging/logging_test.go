package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestComponentTagging(t *testing.T) {
	Setup("debug")
	defer Setup("warn")

	var buf bytes.Buffer
	SetOutput(&buf)

	logger := Component("executor")
	logger.Info().Str("command", "activate").Msg("dispatching")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "executor" {
		t.Fatalf("missing component field: %v", entry)
	}
	if entry["command"] != "activate" {
		t.Fatalf("missing command field: %v", entry)
	}
}

func TestSetupLevelFiltering(t *testing.T) {
	Setup("error")
	defer Setup("warn")

	var buf bytes.Buffer
	SetOutput(&buf)

	logger := Component("test")
	logger.Info().Msg("filtered out")
	logger.Error().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "filtered out") {
		t.Fatalf("info line leaked at error level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("error line missing: %q", out)
	}
}

func TestSetupUnknownLevelFallsBack(t *testing.T) {
	Setup("chatty")
	defer Setup("warn")

	var buf bytes.Buffer
	SetOutput(&buf)

	logger := Component("test")
	logger.Info().Msg("below warn")
	logger.Warn().Msg("at warn")

	out := buf.String()
	if strings.Contains(out, "below warn") {
		t.Fatalf("unknown level did not fall back to warn: %q", out)
	}
	if !strings.Contains(out, "at warn") {
		t.Fatalf("warn line missing: %q", out)
	}
}
