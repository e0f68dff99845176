package transform

// Rule binds one source table to its target resource kind and mapper.
// The rule set is constructed once at process start and read-only for the
// run's duration.
type Rule struct {
	Kind       string
	Map        func(Record) (Document, error)
	PrimaryKey string
	Required   []string
}

var rules = map[string]Rule{
	"tb_person_mtr": {
		Kind:       "Patient",
		Map:        MapPatient,
		PrimaryKey: "person_id",
		Required:   patientRequired,
	},
	"tb_encounter": {
		Kind:       "Encounter",
		Map:        MapEncounter,
		PrimaryKey: "encounter_id",
		Required:   encounterRequired,
	},
	"tb_emr_surgery_info": {
		Kind:       "Procedure",
		Map:        MapProcedure,
		PrimaryKey: "surgery_id",
		Required:   procedureRequired,
	},
	"tb_mig_implant_description": {
		Kind:       "Device",
		Map:        MapDevice,
		PrimaryKey: "implant_id",
		Required:   deviceRequired,
	},
}

// Lookup returns the mapping rule for a source table identifier. A table
// with no rule is not an error; the caller skips the corresponding file.
func Lookup(table string) (Rule, bool) {
	r, ok := rules[table]
	return r, ok
}
