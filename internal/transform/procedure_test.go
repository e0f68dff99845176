package transform

import (
	"errors"
	"testing"

	"github.com/ehr/fhir-etl/internal/platform/fhir"
)

func TestMapProcedure(t *testing.T) {
	rec := Record{
		"surgery_id":     float64(501),
		"encounter_id":   float64(1001),
		"surgery_name":   "Appendectomy",
		"surgery_code":   "APX-01",
		"surgery_status": float64(3),
		"surgery_date":   "2023-05-10",
	}

	doc, err := MapProcedure(rec)
	if err != nil {
		t.Fatalf("MapProcedure: %v", err)
	}
	if doc["id"] != "procedure-501" {
		t.Errorf("id = %v, want procedure-501", doc["id"])
	}
	if doc["status"] != "completed" {
		t.Errorf("status = %v, want completed", doc["status"])
	}

	code, ok := doc["code"].(fhir.CodeableConcept)
	if !ok {
		t.Fatalf("code = %v, want CodeableConcept", doc["code"])
	}
	if code.Text != "Appendectomy" {
		t.Errorf("code.text = %q, want Appendectomy", code.Text)
	}
	if doc["performedDateTime"] != "2023-05-10T00:00:00Z" {
		t.Errorf("performedDateTime = %v", doc["performedDateTime"])
	}
}

// The surgery table has no patient column; the legacy mapping keys the
// subject reference off encounter_id and that relationship is preserved.
func TestMapProcedure_SubjectKeyedOffEncounterID(t *testing.T) {
	doc, err := MapProcedure(Record{
		"surgery_id":   float64(1),
		"encounter_id": float64(1001),
	})
	if err != nil {
		t.Fatalf("MapProcedure: %v", err)
	}
	subject := doc["subject"].(fhir.Reference)
	if subject.Reference != "Patient/patient-1001" {
		t.Errorf("subject.reference = %q, want Patient/patient-1001", subject.Reference)
	}
	enc := doc["encounter"].(fhir.Reference)
	if enc.Reference != "Encounter/encounter-1001" {
		t.Errorf("encounter.reference = %q, want Encounter/encounter-1001", enc.Reference)
	}
}

func TestMapProcedure_MissingSurgeryID(t *testing.T) {
	_, err := MapProcedure(Record{"surgery_name": "Appendectomy"})
	var s *SkipError
	if !errors.As(err, &s) {
		t.Fatalf("expected *SkipError, got %T", err)
	}
}

func TestMapProcedure_NoEncounterNoReferences(t *testing.T) {
	doc, err := MapProcedure(Record{"surgery_id": float64(2), "encounter_id": float64(0)})
	if err != nil {
		t.Fatalf("MapProcedure: %v", err)
	}
	if _, ok := doc["subject"]; ok {
		t.Error("subject should be omitted when encounter_id is absent")
	}
}
