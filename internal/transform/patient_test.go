package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/ehr/fhir-etl/internal/platform/fhir"
)

func TestMapPatient_Scenario(t *testing.T) {
	rec := Record{
		"person_id":    float64(42),
		"person_fname": "Doe",
		"person_sex":   float64(2),
		"person_dob":   "1980-01-01",
	}

	doc, err := MapPatient(rec)
	if err != nil {
		t.Fatalf("MapPatient: %v", err)
	}
	if doc["id"] != "patient-42" {
		t.Errorf("id = %v, want patient-42", doc["id"])
	}
	if doc["gender"] != "female" {
		t.Errorf("gender = %v, want female", doc["gender"])
	}
	if doc["birthDate"] != "1980-01-01" {
		t.Errorf("birthDate = %v, want 1980-01-01", doc["birthDate"])
	}
	if doc["resourceType"] != "Patient" {
		t.Errorf("resourceType = %v, want Patient", doc["resourceType"])
	}

	names, ok := doc["name"].([]fhir.HumanName)
	if !ok || len(names) != 1 {
		t.Fatalf("name = %v, want one HumanName", doc["name"])
	}
	if len(names[0].Given) != 1 || names[0].Given[0] != "Doe" {
		t.Errorf("given = %v, want [Doe]", names[0].Given)
	}
}

func TestMapPatient_MissingRequiredField(t *testing.T) {
	doc, err := MapPatient(Record{"person_fname": "Doe"})
	if doc != nil {
		t.Errorf("expected no document, got %v", doc)
	}
	var s *SkipError
	if !errors.As(err, &s) {
		t.Fatalf("expected *SkipError, got %T: %v", err, err)
	}
	if s.Kind != "Patient" {
		t.Errorf("skip kind = %q, want Patient", s.Kind)
	}
	if !strings.Contains(s.Reason, "person_id") {
		t.Errorf("skip reason %q should name the missing field", s.Reason)
	}
	if !strings.Contains(s.Snapshot, "Doe") {
		t.Errorf("snapshot %q should carry record content", s.Snapshot)
	}
}

func TestMapPatient_NilRecord(t *testing.T) {
	doc, err := MapPatient(nil)
	if doc != nil {
		t.Error("expected no document for nil record")
	}
	var s *SkipError
	if !errors.As(err, &s) {
		t.Fatalf("expected *SkipError, got %T", err)
	}
}

func TestMapPatient_SentinelFieldsOmitted(t *testing.T) {
	rec := Record{
		"person_id":    float64(7),
		"person_fname": float64(0),
		"person_lname": "1",
		"person_dob":   float64(0),
		"person_telno": "0",
	}
	doc, err := MapPatient(rec)
	if err != nil {
		t.Fatalf("MapPatient: %v", err)
	}
	if _, ok := doc["birthDate"]; ok {
		t.Error("sentinel birth date should be omitted, not emitted empty")
	}
	if _, ok := doc["telecom"]; ok {
		t.Error("sentinel phone should be omitted")
	}
	// person_lname "1" is a plain string, not numeric sentinel, so it stays.
	if _, ok := doc["name"]; !ok {
		t.Error("string \"1\" surname should still be emitted")
	}
}

func TestMapPatient_UnknownSexCode(t *testing.T) {
	doc, err := MapPatient(Record{"person_id": float64(1), "person_sex": float64(42)})
	if err != nil {
		t.Fatalf("MapPatient: %v", err)
	}
	if doc["gender"] != "unknown" {
		t.Errorf("gender = %v, want unknown for unrecognized code", doc["gender"])
	}
}

func TestMapPatient_Extensions(t *testing.T) {
	doc, err := MapPatient(Record{"person_id": float64(9), "person_job": "florist"})
	if err != nil {
		t.Fatalf("MapPatient: %v", err)
	}
	exts, ok := doc["extension"].([]fhir.Extension)
	if !ok || len(exts) != 1 {
		t.Fatalf("extension = %v, want one entry", doc["extension"])
	}
	if exts[0].ValueString != "florist" {
		t.Errorf("extension value = %q, want florist", exts[0].ValueString)
	}
}
