package document

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML reads one YAML document and converts it into a Value.
// The top-level node must be a mapping; anything else is rejected because
// every structured file kind in a submission is a mapping of fields.
func DecodeYAML(r io.Reader) (Value, error) {
	var raw any
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return Value{}, fmt.Errorf("empty document")
		}
		return Value{}, fmt.Errorf("invalid yaml: %w", err)
	}

	v, err := FromAny(raw)
	if err != nil {
		return Value{}, err
	}
	if v.Kind() != KindMapping {
		return Value{}, fmt.Errorf("top-level node is %s, expected mapping", v.Kind())
	}
	return v, nil
}
