// Package report defines the structured validation and outcome reports the
// ingestion pipeline hands back to callers. A failed submission is always
// described by the full set of violations, never just the first one.
package report

// ViolationKind classifies a single non-conformance.
type ViolationKind string

const (
	// KindStructural marks a directory/file-layout non-conformance. Fatal
	// either for the whole submission or for one session.
	KindStructural ViolationKind = "structural"

	// KindField marks a missing or invalid required field inside one
	// structured file. Fatal for that file's unit.
	KindField ViolationKind = "field"

	// KindExclusion marks a non-fatal anomaly: the offending sub-unit is
	// dropped from the commit set, siblings continue.
	KindExclusion ViolationKind = "exclusion"

	// KindStorage marks an object-store or relational-store failure that
	// persisted past the bounded retries.
	KindStorage ViolationKind = "storage"
)

// Violation is one recorded non-conformance. Warning marks an anomaly that
// drops no unit: it is reported to the caller but never produces an
// exclusion.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Path     string        `json:"path"`
	Field    string        `json:"field,omitempty"`
	Expected string        `json:"expected,omitempty"`
	Message  string        `json:"message"`
	Fatal    bool          `json:"fatal"`
	Warning  bool          `json:"warning,omitempty"`
}

// ShapeReport is the outcome of structure validation over one submission
// tree. Violations keep insertion order.
type ShapeReport struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}

// Add records a violation; any fatal one clears OK.
func (r *ShapeReport) Add(v Violation) {
	if v.Fatal {
		r.OK = false
	}
	r.Violations = append(r.Violations, v)
}

// Merge appends all violations of other.
func (r *ShapeReport) Merge(other ShapeReport) {
	for _, v := range other.Violations {
		r.Add(v)
	}
}

// FieldError is one field-level problem inside a structured file.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldReport is the outcome of field validation of one structured file.
// Warnings carry non-fatal anomalies such as ignored system-assigned keys.
type FieldReport struct {
	File     string       `json:"file"`
	Kind     string       `json:"kind"`
	OK       bool         `json:"ok"`
	Errors   []FieldError `json:"errors,omitempty"`
	Warnings []FieldError `json:"warnings,omitempty"`
}

// AddError records a field error and clears OK.
func (r *FieldReport) AddError(field, message string) {
	r.OK = false
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// AddWarning records a non-fatal field anomaly.
func (r *FieldReport) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, FieldError{Field: field, Message: message})
}

// ValidationSummary is the read-only validateDataSet reply: the shape report
// plus one field report per structured file that passed shape validation.
type ValidationSummary struct {
	OK     bool          `json:"ok"`
	Shape  ShapeReport   `json:"shape"`
	Fields []FieldReport `json:"fields,omitempty"`
}

// Status is the overall result of an upload.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// ExcludedUnit names one sub-unit dropped from the commit set.
type ExcludedUnit struct {
	Path   string        `json:"path"`
	Kind   ViolationKind `json:"kind"`
	Reason string        `json:"reason"`
}

// Outcome is the final uploadDataSet reply.
type Outcome struct {
	Status     Status         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Committed  []string       `json:"committed"`
	Excluded   []ExcludedUnit `json:"excluded"`
	Violations []Violation    `json:"violations,omitempty"`
}

// Exclude records an excluded unit.
func (o *Outcome) Exclude(path string, kind ViolationKind, reason string) {
	o.Excluded = append(o.Excluded, ExcludedUnit{Path: path, Kind: kind, Reason: reason})
}

// Finalize derives the overall status from what was committed and excluded.
// Nothing committed and at least one exclusion is a failure; a mixed result
// is partial.
func (o *Outcome) Finalize() {
	switch {
	case len(o.Excluded) == 0:
		o.Status = StatusSuccess
	case len(o.Committed) == 0:
		o.Status = StatusFailure
		if o.Reason == "" {
			o.Reason = "no unit could be committed"
		}
	default:
		o.Status = StatusPartial
	}
}
