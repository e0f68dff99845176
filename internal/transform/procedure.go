package transform

import (
	"fmt"

	"github.com/ehr/fhir-etl/internal/platform/fhir"
)

var procedureRequired = []string{"surgery_id"}

// MapProcedure maps one tb_emr_surgery_info row to a FHIR Procedure
// document.
//
// The source table carries no patient column; its subject reference is
// keyed off encounter_id, exactly as the legacy mapping did. Broken or
// mismatched references are tolerated, never checked.
func MapProcedure(rec Record) (doc Document, err error) {
	if rec == nil {
		return nil, skip("Procedure", "nil record", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, skip("Procedure", fmt.Sprintf("panic during mapping: %v", r), rec)
		}
	}()

	if s := requireFields("Procedure", rec, procedureRequired); s != nil {
		return nil, s
	}

	doc = Document{
		"resourceType": "Procedure",
		"id":           fhir.ResourceID("Procedure", rec["surgery_id"]),
		"identifier": []fhir.Identifier{{
			Use:    "usual",
			System: "urn:ehr:surgery-id",
			Value:  fhir.FormatKey(rec["surgery_id"]),
		}},
		"status": lookupCode(procedureStatus, rec["surgery_status"]),
	}

	if hasValue(rec["encounter_id"]) {
		doc["subject"] = fhir.Reference{
			Reference: fhir.FormatReference("Patient", rec["encounter_id"]),
			Type:      "Patient",
		}
		doc["encounter"] = fhir.Reference{
			Reference: fhir.FormatReference("Encounter", rec["encounter_id"]),
			Type:      "Encounter",
		}
	}

	code := fhir.CodeableConcept{}
	if IsPresent(rec["surgery_code"]) {
		code.Coding = []fhir.Coding{{Code: asText(rec["surgery_code"])}}
	}
	if IsPresent(rec["surgery_name"]) {
		code.Text = asText(rec["surgery_name"])
	}
	if len(code.Coding) > 0 || code.Text != "" {
		doc["code"] = code
	}

	if performed := NormalizeDateTime(rec["surgery_date"]); performed != "" {
		doc["performedDateTime"] = performed
	}

	ext := extensions("tb_emr_surgery_info", rec, []string{"operation_room", "surgeon_name", "anesthesia_type"})
	if len(ext) > 0 {
		doc["extension"] = ext
	}

	return doc, nil
}
