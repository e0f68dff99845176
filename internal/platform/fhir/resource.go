package fhir

import (
	"fmt"
	"strings"
)

// Coding is a reference to a code defined by a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Identifier struct {
	Use    string `json:"use,omitempty"`
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
}

type Address struct {
	Use        string   `json:"use,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Extension struct {
	URL         string `json:"url"`
	ValueString string `json:"valueString,omitempty"`
}

// ResourceID builds the deterministic store identifier for a resource:
// "<kind-lowercase>-<primary-key-value>". Re-running the pipeline on the
// same source row yields the same identifier, which is what makes the
// store upsert idempotent.
func ResourceID(resourceType string, key interface{}) string {
	return fmt.Sprintf("%s-%s", strings.ToLower(resourceType), FormatKey(key))
}

// FormatReference creates a FHIR reference string pointing at the
// synthesized identifier of another resource, e.g. "Patient/patient-42".
// The referenced resource is never checked for existence.
func FormatReference(resourceType string, key interface{}) string {
	return fmt.Sprintf("%s/%s", resourceType, ResourceID(resourceType, key))
}

// FormatKey renders a source primary-key value as a string. JSON decoding
// hands numeric keys over as float64; whole numbers must not pick up an
// exponent or decimal suffix or identifiers stop being stable across runs.
func FormatKey(key interface{}) string {
	switch k := key.(type) {
	case float64:
		if k == float64(int64(k)) {
			return fmt.Sprintf("%d", int64(k))
		}
		return fmt.Sprintf("%v", k)
	case string:
		return strings.TrimSpace(k)
	default:
		return fmt.Sprintf("%v", k)
	}
}
