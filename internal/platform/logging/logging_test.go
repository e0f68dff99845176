package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "etl.log")

	logger := New("debug", logFile)
	logger.Error().Str("table", "tb_person_mtr").Msg("record skipped")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "record skipped") {
		t.Errorf("log file missing error entry, got: %s", data)
	}
	if !strings.Contains(string(data), "run_id") {
		t.Error("log entries should carry a run_id")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "etl.log")

	logger := New("error", logFile)
	logger.Info().Msg("should not appear")
	logger.Error().Msg("should appear")

	data, _ := os.ReadFile(logFile)
	if strings.Contains(string(data), "should not appear") {
		t.Error("info entry emitted despite error level")
	}
	if !strings.Contains(string(data), "should appear") {
		t.Error("error entry missing")
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "etl.log")

	logger := New("nonsense", logFile)
	logger.Info().Msg("info entry")

	data, _ := os.ReadFile(logFile)
	if !strings.Contains(string(data), "info entry") {
		t.Error("expected info level fallback for unknown level string")
	}
}
