package transform

import (
	"fmt"

	"github.com/ehr/fhir-etl/internal/platform/fhir"
)

var encounterRequired = []string{"encounter_id", "enc_patid"}

const actCodeSystem = "http://terminology.hl7.org/CodeSystem/v3-ActCode"

// MapEncounter maps one tb_encounter row to a FHIR Encounter document.
func MapEncounter(rec Record) (doc Document, err error) {
	if rec == nil {
		return nil, skip("Encounter", "nil record", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, skip("Encounter", fmt.Sprintf("panic during mapping: %v", r), rec)
		}
	}()

	if s := requireFields("Encounter", rec, encounterRequired); s != nil {
		return nil, s
	}

	doc = Document{
		"resourceType": "Encounter",
		"id":           fhir.ResourceID("Encounter", rec["encounter_id"]),
		"identifier": []fhir.Identifier{{
			Use:    "usual",
			System: "urn:ehr:encounter-id",
			Value:  fhir.FormatKey(rec["encounter_id"]),
		}},
		"status": lookupCode(encounterStatus, rec["enc_status"]),
		"subject": fhir.Reference{
			Reference: fhir.FormatReference("Patient", rec["enc_patid"]),
			Type:      "Patient",
		},
	}

	if hasValue(rec["enc_class"]) {
		code := lookupCode(encounterClass, rec["enc_class"])
		if code != unknownCode {
			doc["class"] = fhir.Coding{
				System:  actCodeSystem,
				Code:    code,
				Display: encounterClassDisplay[code],
			}
		}
	}

	period := fhir.Period{
		Start: NormalizeDateTime(rec["enc_date_st"]),
		End:   NormalizeDateTime(rec["enc_date_end"]),
	}
	if period.Start != "" || period.End != "" {
		doc["period"] = period
	}

	if IsPresent(rec["enc_type"]) {
		doc["type"] = []fhir.CodeableConcept{{Text: asText(rec["enc_type"])}}
	}
	if IsPresent(rec["enc_reason"]) {
		doc["reasonCode"] = []fhir.CodeableConcept{{Text: asText(rec["enc_reason"])}}
	}

	ext := extensions("tb_encounter", rec, []string{"enc_dept", "enc_ward", "enc_doctor_id"})
	if len(ext) > 0 {
		doc["extension"] = ext
	}

	return doc, nil
}
