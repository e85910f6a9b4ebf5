package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// SetupがJSON形式でログを出力することを検証
func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Info("price updated", "grade", "W320")

	line := strings.TrimSpace(buf.String())
	var record map[string]interface{}
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, line)
	}
	if record["msg"] != "price updated" {
		t.Errorf("msg = %v, want %q", record["msg"], "price updated")
	}
	if record["grade"] != "W320" {
		t.Errorf("grade = %v, want %q", record["grade"], "W320")
	}
}

// DebugレベルのログがデフォルトのInfoレベルで抑制されることを検証
func TestSetup_SuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("should not appear")

	if buf.Len() != 0 {
		t.Errorf("debug log should be suppressed, got %q", buf.String())
	}
}

// LOG_LEVEL=debugでDebugレベルのログが出力されることを検証
func TestSetup_DebugLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("feed fetch detail", "source_id", "src-1")

	if buf.Len() == 0 {
		t.Fatal("debug log should be written when LOG_LEVEL=debug")
	}
	var record map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["source_id"] != "src-1" {
		t.Errorf("source_id = %v, want src-1", record["source_id"])
	}
}
