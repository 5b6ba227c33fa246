package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	logger.Info("session submitted", "session_id", "s1", "analysts", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "session submitted" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["session_id"] != "s1" {
		t.Errorf("session_id = %v", entry["session_id"])
	}
}

func TestLogger_AutoFallsBackToJSON(t *testing.T) {
	// A bytes.Buffer is not a terminal, so auto means JSON here
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "auto", Output: &buf})

	logger.Info("hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("auto format on a non-terminal should emit JSON, got: %s", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("below-level records leaked: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestLogger_ContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text", Output: &buf})

	logger.WithSession("s1").WithAnalyst("technical").WithPhase("parallel_analysis").Info("running")

	out := buf.String()
	for _, want := range []string{"session_id=s1", "analyst_id=technical", "phase=parallel_analysis"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestNewNop(t *testing.T) {
	// Must be safe to use and emit nothing
	logger := NewNop()
	logger.Info("into the void")
	logger.WithSession("s1").Error("still nothing")
}
