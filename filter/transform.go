package filter

import (
	"encoding/json"
	"fmt"
)

// TransformType selects how a connection reshapes the outbound payload
type TransformType string

const (
	Passthrough TransformType = "passthrough"
	FieldMap    TransformType = "field_map"
)

// FieldMapRule copies one source path into one destination field
type FieldMapRule struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Transform is a connection's payload transform spec
type Transform struct {
	Type  TransformType  `json:"type"`
	Rules []FieldMapRule `json:"rules,omitempty"`
}

// Validate checks the transform is well formed at write time
func (t Transform) Validate() error {
	switch t.Type {
	case Passthrough:
		return nil
	case FieldMap:
		if len(t.Rules) == 0 {
			return fmt.Errorf("field_map transform needs at least one rule")
		}
		for _, rule := range t.Rules {
			if rule.From == "" || rule.To == "" {
				return fmt.Errorf("field_map rule needs both from and to")
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown transform type: %s", t.Type)
	}
}

// Apply produces the outbound payload. A nil or passthrough transform,
// an unknown type, or an unparseable body all forward the raw body
// unchanged. field_map builds a fresh object holding only the mapped
// destination fields; missing source paths are omitted, never defaulted.
func (t *Transform) Apply(body []byte) []byte {
	if t == nil || t.Type != FieldMap {
		return body
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return body
	}

	result := make(map[string]any, len(t.Rules))
	for _, rule := range t.Rules {
		if value, found := Resolve(doc, rule.From); found {
			result[rule.To] = value
		}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return body
	}
	return out
}
