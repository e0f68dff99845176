package transform

import (
	"encoding/json"
	"fmt"

	"github.com/ehr/fhir-etl/internal/platform/fhir"
)

// Record is one decoded row of a source table: a flat mapping from field
// name to scalar. A record is consumed by exactly one mapper invocation
// and not retained afterwards.
type Record map[string]interface{}

// Document is a mapped FHIR resource ready for persistence.
type Document map[string]interface{}

// snapshotLimit bounds how much of an offending record ends up in a log
// entry or skip reason.
const snapshotLimit = 256

// SkipError reports that a source record could not be mapped. It carries
// the target kind, the reason, and a truncated snapshot of the record, so
// callers (and tests) can act on the reason instead of only observing the
// absence of output. A skip is never fatal to the batch.
type SkipError struct {
	Kind     string
	Reason   string
	Snapshot string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skip %s record: %s", e.Kind, e.Reason)
}

func skip(kind, reason string, rec Record) *SkipError {
	return &SkipError{Kind: kind, Reason: reason, Snapshot: snapshot(rec)}
}

func snapshot(rec Record) string {
	if rec == nil {
		return ""
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Sprintf("%v", rec)
	}
	if len(b) > snapshotLimit {
		return string(b[:snapshotLimit]) + "..."
	}
	return string(b)
}

// requireFields returns a skip result naming the first required field that
// is absent from the record.
func requireFields(kind string, rec Record, required []string) *SkipError {
	for _, f := range required {
		if !hasValue(rec[f]) {
			return skip(kind, fmt.Sprintf("missing required field %s", f), rec)
		}
	}
	return nil
}

// asText renders a raw scalar as a normalized string value.
func asText(v interface{}) string {
	n := NormalizeText(v)
	if s, ok := n.(string); ok {
		return s
	}
	return fhir.FormatKey(n)
}

// extensions collects source fields that have no direct FHIR target into
// the document's open extension list.
func extensions(table string, rec Record, fields []string) []fhir.Extension {
	var out []fhir.Extension
	for _, f := range fields {
		if !IsPresent(rec[f]) {
			continue
		}
		out = append(out, fhir.Extension{
			URL:         fmt.Sprintf("urn:ehr:%s:%s", table, f),
			ValueString: asText(rec[f]),
		})
	}
	return out
}
