package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ehr/fhir-etl/internal/platform/db"
)

func setupEnv(t *testing.T) (inputDir, outputPath string) {
	t.Helper()
	inputDir = t.TempDir()
	outputPath = filepath.Join(t.TempDir(), "fhir_resources.sqlite")
	t.Setenv("INPUT_DIR", inputDir)
	t.Setenv("OUTPUT_PATH", outputPath)
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "fhir-etl.log"))
	t.Setenv("MARKER_WAIT", "false")
	return inputDir, outputPath
}

func TestRunPipeline_EndToEnd(t *testing.T) {
	inputDir, outputPath := setupEnv(t)

	records := `[
		{"person_id": 42, "person_fname": "Doe", "person_sex": 2, "person_dob": "1980-01-01"},
		{"person_fname": "missing id"}
	]`
	if err := os.WriteFile(filepath.Join(inputDir, "tb_person_mtr_preprocessed.json"), []byte(records), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runPipeline(); err != nil {
		t.Fatalf("runPipeline: %v", err)
	}

	store, err := db.Open(outputPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	counts, err := store.CountByKind(ctx)
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if counts["patient"] != 1 {
		t.Errorf("patient rows = %d, want 1 (bad record skipped, not fatal)", counts["patient"])
	}

	raw, err := store.Get(ctx, "patient", "patient-42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(raw, `"gender":"female"`) {
		t.Errorf("stored resource missing mapped gender: %s", raw)
	}
}

func TestRunPipeline_EmptyInputDirSucceeds(t *testing.T) {
	_, outputPath := setupEnv(t)

	if err := runPipeline(); err != nil {
		t.Fatalf("runPipeline on empty dir: %v", err)
	}

	store, err := db.Open(outputPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	counts, err := store.CountByKind(context.Background())
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	for kind, n := range counts {
		if n != 0 {
			t.Errorf("%s rows = %d, want 0", kind, n)
		}
	}
}

func TestRunPipeline_MissingInputDirFails(t *testing.T) {
	setupEnv(t)
	t.Setenv("INPUT_DIR", filepath.Join(t.TempDir(), "does-not-exist"))

	if err := runPipeline(); err == nil {
		t.Fatal("expected error for unreadable input directory")
	}
}
