package schema

import (
	"fmt"
	"strconv"
	"time"

	"github.com/croplabs/picstore/internal/document"
	"github.com/croplabs/picstore/internal/report"
)

// dateLayouts are accepted when coercing a string into a date, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// Coerce converts v into the declared field type. Strings that look like
// integers or dates per the declared type are coerced; a value that cannot
// be coerced is an error, never a panic.
func Coerce(spec FieldSpec, v document.Value) (document.Value, error) {
	switch spec.Type {
	case TypeString:
		if s, ok := v.AsString(); ok {
			return document.String(s), nil
		}
		return document.Value{}, fmt.Errorf("expected string, got %s", v.Kind())

	case TypeInt:
		if i, ok := v.AsInt(); ok {
			return document.Int(i), nil
		}
		if s, ok := v.AsString(); ok {
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return document.Value{}, fmt.Errorf("%q is not an integer", s)
			}
			return document.Int(i), nil
		}
		return document.Value{}, fmt.Errorf("expected integer, got %s", v.Kind())

	case TypeDate:
		if d, ok := v.AsDate(); ok {
			return document.Date(d), nil
		}
		if s, ok := v.AsString(); ok {
			for _, layout := range dateLayouts {
				if d, err := time.Parse(layout, s); err == nil {
					return document.Date(d), nil
				}
			}
			return document.Value{}, fmt.Errorf("%q is not a date", s)
		}
		return document.Value{}, fmt.Errorf("expected date, got %s", v.Kind())

	case TypeEnum:
		s, ok := v.AsString()
		if !ok {
			return document.Value{}, fmt.Errorf("expected one of %v, got %s", spec.Enum, v.Kind())
		}
		for _, allowed := range spec.Enum {
			if s == allowed {
				return document.String(s), nil
			}
		}
		return document.Value{}, fmt.Errorf("%q is not one of %v", s, spec.Enum)

	case TypeMapping:
		if v.Kind() == document.KindMapping {
			return v, nil
		}
		return document.Value{}, fmt.Errorf("expected mapping, got %s", v.Kind())

	case TypeList:
		if v.Kind() == document.KindList {
			return v, nil
		}
		return document.Value{}, fmt.Errorf("expected list, got %s", v.Kind())

	default:
		return document.Value{}, fmt.Errorf("unknown field type %q", spec.Type)
	}
}

// ValidateFields checks a parsed document against the field schema of kind.
// It is pure: identical inputs yield identical reports. Every violated field
// is reported, not just the first.
func (rs *RuleSet) ValidateFields(kind FileKind, file string, doc document.Value) report.FieldReport {
	fr := report.FieldReport{File: file, Kind: string(kind), OK: true}

	if doc.Kind() != document.KindMapping {
		fr.AddError("", fmt.Sprintf("document is %s, expected mapping", doc.Kind()))
		return fr
	}

	for _, spec := range rs.fields[kind] {
		v, present := doc.Field(spec.Name)
		if !present || v.IsNull() {
			if spec.Required {
				fr.AddError(spec.Name, "required field missing")
			}
			continue
		}
		if _, err := Coerce(spec, v); err != nil {
			fr.AddError(spec.Name, err.Error())
		}
	}

	return fr
}
