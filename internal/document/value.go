// Package document implements the schema-on-read model for user-authored
// structured files. A file is parsed into a generic tagged Value (string,
// integer, float, bool, date, list, mapping) instead of a fixed struct, so
// the schema registry can evolve without recompiling a rigid type for every
// file kind.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindDate
	KindList
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is one node of a parsed document. The zero value is the null value.
type Value struct {
	kind    Kind
	str     string
	num     int64
	flt     float64
	boolean bool
	date    time.Time
	list    []Value
	mapping map[string]Value
}

func Null() Value               { return Value{kind: KindNull} }
func String(s string) Value     { return Value{kind: KindString, str: s} }
func Int(i int64) Value         { return Value{kind: KindInt, num: i} }
func Float(f float64) Value     { return Value{kind: KindFloat, flt: f} }
func Bool(b bool) Value         { return Value{kind: KindBool, boolean: b} }
func Date(t time.Time) Value    { return Value{kind: KindDate, date: t} }
func List(vs []Value) Value     { return Value{kind: KindList, list: vs} }

// Mapping copies m into a mapping value.
func Mapping(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMapping, mapping: cp}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool)  { return v.str, v.kind == KindString }
func (v Value) AsInt() (int64, bool)      { return v.num, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)  { return v.flt, v.kind == KindFloat }
func (v Value) AsBool() (bool, bool)      { return v.boolean, v.kind == KindBool }
func (v Value) AsDate() (time.Time, bool) { return v.date, v.kind == KindDate }

// Items returns the elements of a list value, or nil.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Field looks up a key in a mapping value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	f, ok := v.mapping[name]
	return f, ok
}

// Keys returns the sorted keys of a mapping value, or nil.
func (v Value) Keys() []string {
	if v.kind != KindMapping {
		return nil
	}
	keys := make([]string, 0, len(v.mapping))
	for k := range v.mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the element count for lists and mappings, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMapping:
		return len(v.mapping)
	default:
		return 0
	}
}

// Interface converts the value into plain Go types (string, int64, float64,
// bool, time.Time, []any, map[string]any, nil).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.boolean
	case KindDate:
		return v.date
	case KindList:
		items := make([]any, len(v.list))
		for i, it := range v.list {
			items[i] = it.Interface()
		}
		return items
	case KindMapping:
		m := make(map[string]any, len(v.mapping))
		for k, f := range v.mapping {
			m[k] = f.Interface()
		}
		return m
	default:
		return nil
	}
}

// MarshalJSON serializes the value for storage in a document column.
// Dates become RFC 3339 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindDate:
		return json.Marshal(v.date.Format(time.RFC3339))
	default:
		return json.Marshal(v.Interface())
	}
}

// UnmarshalJSON rebuilds a value from its stored JSON form. Numbers come
// back as floats and dates as strings; schema-driven readers re-coerce them.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	decoded, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromAny converts the output of a generic decoder (yaml/json into any)
// into a Value. Unsupported types are an error, not a panic.
func FromAny(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		return Int(int64(t)), nil
	case float64:
		return Float(t), nil
	case bool:
		return Bool(t), nil
	case time.Time:
		return Date(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, el := range t {
			v, err := FromAny(el)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, el := range t {
			v, err := FromAny(el)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Value{kind: KindMapping, mapping: m}, nil
	default:
		return Value{}, fmt.Errorf("unsupported document node type %T", in)
	}
}
