package transform

import (
	"fmt"

	"github.com/ehr/fhir-etl/internal/platform/fhir"
)

var deviceRequired = []string{"implant_id"}

// MapDevice maps one tb_mig_implant_description row to a FHIR Device
// document.
//
// As with Procedure, the patient reference is keyed off encounter_id,
// preserving the legacy table relationship.
func MapDevice(rec Record) (doc Document, err error) {
	if rec == nil {
		return nil, skip("Device", "nil record", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, skip("Device", fmt.Sprintf("panic during mapping: %v", r), rec)
		}
	}()

	if s := requireFields("Device", rec, deviceRequired); s != nil {
		return nil, s
	}

	doc = Document{
		"resourceType": "Device",
		"id":           fhir.ResourceID("Device", rec["implant_id"]),
		"identifier": []fhir.Identifier{{
			Use:    "usual",
			System: "urn:ehr:implant-id",
			Value:  fhir.FormatKey(rec["implant_id"]),
		}},
		"status": lookupCode(deviceStatus, rec["implant_status"]),
	}

	if hasValue(rec["encounter_id"]) {
		doc["patient"] = fhir.Reference{
			Reference: fhir.FormatReference("Patient", rec["encounter_id"]),
			Type:      "Patient",
		}
	}

	if IsPresent(rec["implant_name"]) {
		doc["deviceName"] = []map[string]string{{
			"name": asText(rec["implant_name"]),
			"type": "user-friendly-name",
		}}
	}
	if IsPresent(rec["implant_type"]) {
		doc["type"] = fhir.CodeableConcept{Text: asText(rec["implant_type"])}
	}
	if IsPresent(rec["manufacturer"]) {
		doc["manufacturer"] = asText(rec["manufacturer"])
	}
	if IsPresent(rec["lot_number"]) {
		doc["lotNumber"] = asText(rec["lot_number"])
	}
	if IsPresent(rec["serial_no"]) {
		doc["serialNumber"] = asText(rec["serial_no"])
	}
	if manufactured := NormalizeDate(rec["implant_date"]); manufactured != "" {
		doc["manufactureDate"] = manufactured
	}
	if expiry := NormalizeDate(rec["expiry_date"]); expiry != "" {
		doc["expirationDate"] = expiry
	}

	ext := extensions("tb_mig_implant_description", rec, []string{"implant_site", "implant_note"})
	if len(ext) > 0 {
		doc["extension"] = ext
	}

	return doc, nil
}
