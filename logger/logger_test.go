package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// captureLine runs fn against a logger writing to a buffer and decodes the
// last emitted JSON line.
func captureLine(t *testing.T, fn func(l *Log)) map[string]interface{} {
	t.Helper()

	l := Logger()
	var buf bytes.Buffer
	l.SetOutput(&buf)

	fn(l)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected at least one log line")
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("failed to decode log line: %v", err)
	}
	return entry
}

func TestLogMetricFields(t *testing.T) {
	entry := captureLine(t, func(l *Log) {
		l.LogMetric("engine", "ScanDurationMs", 42.0, "gauge", Fields{"mode": "flow-sweep"})
	})

	if entry["message"] != "metric" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["metric"] != "ScanDurationMs" {
		t.Errorf("unexpected metric name: %v", entry["metric"])
	}
	if entry["value"] != 42.0 {
		t.Errorf("unexpected metric value: %v", entry["value"])
	}
	if entry["metric_type"] != "gauge" {
		t.Errorf("unexpected metric type: %v", entry["metric_type"])
	}
	if entry["component"] != "engine" {
		t.Errorf("unexpected component: %v", entry["component"])
	}
	if entry["mode"] != "flow-sweep" {
		t.Errorf("unexpected mode field: %v", entry["mode"])
	}
}

func TestWithEnvAttachesValues(t *testing.T) {
	t.Setenv("WHALEFLOW_TEST_ENV", "staging")

	entry := captureLine(t, func(l *Log) {
		l.WithEnv("WHALEFLOW_TEST_ENV").Info("environment loaded")
	})

	if entry["WHALEFLOW_TEST_ENV"] != "staging" {
		t.Errorf("unexpected env field: %v", entry["WHALEFLOW_TEST_ENV"])
	}
}
