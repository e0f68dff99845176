package transform

import (
	"strconv"
	"strings"
)

// The source system encodes categorical fields as small integers. Each
// table below maps those codes to canonical FHIR tokens; a code with no
// entry resolves to the default token instead of propagating silently.

const unknownCode = "unknown"

// tb_person_mtr.person_sex → Patient.gender (administrative sex)
var administrativeSex = map[int]string{
	1: "male",
	2: "female",
	3: "other",
}

// tb_person_mtr.person_title → name prefix
var nameTitle = map[int]string{
	1: "Mr",
	2: "Mrs",
	3: "Ms",
	4: "Dr",
	5: "Prof",
}

// tb_encounter.enc_status → Encounter.status
var encounterStatus = map[int]string{
	1: "planned",
	2: "in-progress",
	3: "finished",
	4: "cancelled",
}

// tb_encounter.enc_class → Encounter.class (v3-ActCode)
var encounterClass = map[int]string{
	1: "AMB",
	2: "IMP",
	3: "EMER",
}

var encounterClassDisplay = map[string]string{
	"AMB":  "ambulatory",
	"IMP":  "inpatient encounter",
	"EMER": "emergency",
}

// tb_emr_surgery_info.surgery_status → Procedure.status
var procedureStatus = map[int]string{
	1: "preparation",
	2: "in-progress",
	3: "completed",
	4: "stopped",
}

// tb_mig_implant_description.implant_status → Device.status
var deviceStatus = map[int]string{
	1: "active",
	2: "inactive",
	3: "entered-in-error",
}

// lookupCode resolves a raw coded value against a code table. The raw
// value may arrive as a JSON number or as a numeric string; anything that
// does not resolve maps to the default token.
func lookupCode(table map[int]string, v interface{}) string {
	code, ok := asInt(v)
	if !ok {
		return unknownCode
	}
	if token, ok := table[code]; ok {
		return token
	}
	return unknownCode
}

func asInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
