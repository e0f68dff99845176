package transform

import (
	"fmt"

	"github.com/ehr/fhir-etl/internal/platform/fhir"
)

var patientRequired = []string{"person_id"}

// MapPatient maps one tb_person_mtr row to a FHIR Patient document.
func MapPatient(rec Record) (doc Document, err error) {
	if rec == nil {
		return nil, skip("Patient", "nil record", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, skip("Patient", fmt.Sprintf("panic during mapping: %v", r), rec)
		}
	}()

	if s := requireFields("Patient", rec, patientRequired); s != nil {
		return nil, s
	}

	doc = Document{
		"resourceType": "Patient",
		"id":           fhir.ResourceID("Patient", rec["person_id"]),
		"identifier": []fhir.Identifier{{
			Use:    "usual",
			System: "urn:ehr:person-id",
			Value:  fhir.FormatKey(rec["person_id"]),
		}},
	}

	name := fhir.HumanName{Use: "official"}
	var hasName bool
	if IsPresent(rec["person_lname"]) {
		name.Family = asText(rec["person_lname"])
		hasName = true
	}
	if IsPresent(rec["person_fname"]) {
		name.Given = []string{asText(rec["person_fname"])}
		hasName = true
	}
	if hasValue(rec["person_title"]) {
		if title := lookupCode(nameTitle, rec["person_title"]); title != unknownCode {
			name.Prefix = []string{title}
			hasName = true
		}
	}
	if hasName {
		doc["name"] = []fhir.HumanName{name}
	}

	if hasValue(rec["person_sex"]) {
		doc["gender"] = lookupCode(administrativeSex, rec["person_sex"])
	}
	if birth := NormalizeDate(rec["person_dob"]); birth != "" {
		doc["birthDate"] = birth
	}
	if deceased := NormalizeDateTime(rec["person_death_dt"]); deceased != "" {
		doc["deceasedDateTime"] = deceased
	}

	var telecom []fhir.ContactPoint
	if IsPresent(rec["person_telno"]) {
		telecom = append(telecom, fhir.ContactPoint{System: "phone", Value: asText(rec["person_telno"]), Use: "home"})
	}
	if IsPresent(rec["person_mobile"]) {
		telecom = append(telecom, fhir.ContactPoint{System: "phone", Value: asText(rec["person_mobile"]), Use: "mobile"})
	}
	if len(telecom) > 0 {
		doc["telecom"] = telecom
	}

	if IsPresent(rec["person_addr"]) {
		addr := fhir.Address{Use: "home", Line: []string{asText(rec["person_addr"])}}
		if IsPresent(rec["person_zipcode"]) {
			addr.PostalCode = asText(rec["person_zipcode"])
		}
		doc["address"] = []fhir.Address{addr}
	}

	ext := extensions("tb_person_mtr", rec, []string{"person_job", "person_blood_type", "person_nationality"})
	if len(ext) > 0 {
		doc["extension"] = ext
	}

	return doc, nil
}
