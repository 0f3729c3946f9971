package etl

import (
	"fmt"
	"strings"
)

// ── Transformer ────────────────────────────────────────────
// Transformers modify records in-flight between source and destination.
// They are composable: each takes a record, returns a (possibly modified)
// record and a boolean indicating whether to keep it.
//
// Pattern: Benthos processor chain.

// Transformer processes a single record.
// Returns (transformed record, keep). If keep is false, the record is dropped.
type Transformer interface {
	Transform(Record) (Record, bool)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(Record) (Record, bool)

func (f TransformerFunc) Transform(r Record) (Record, bool) { return f(r) }

// TransformConfig is a declarative transform definition.
type TransformConfig struct {
	Type   string         `json:"type"` // "rename" | "select"
	Config map[string]any `json:"config"`
}

// ── Built-in Transforms ────────────────────────────────────

// RenameTransform renames columns in a record, keeping their position.
type RenameTransform struct {
	Mapping map[string]string // oldName → newName
}

func (t *RenameTransform) Transform(r Record) (Record, bool) {
	out := NewRecord(r.Key)
	for _, name := range r.Order {
		target := name
		if renamed, ok := t.Mapping[name]; ok && renamed != "" {
			target = renamed
		}
		out.Set(target, r.Data[name])
	}
	return out, true
}

// SelectTransform keeps only the specified columns, in the listed order.
type SelectTransform struct {
	Fields []string
}

func (t *SelectTransform) Transform(r Record) (Record, bool) {
	out := NewRecord(r.Key)
	for _, f := range t.Fields {
		if v, ok := r.Data[f]; ok {
			out.Set(f, v)
		}
	}
	return out, true
}

// ApplyTransformers runs r through ts in order, stopping at the first drop.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}

// BuildTransformers converts declarative configs into Transformer instances.
// Unknown types and incomplete configs are rejected.
func BuildTransformers(configs []TransformConfig) ([]Transformer, error) {
	var ts []Transformer

	for _, tc := range configs {
		switch tc.Type {
		case "rename":
			mapping, ok := tc.Config["mapping"].(map[string]any)
			if !ok || len(mapping) == 0 {
				return nil, fmt.Errorf("rename: mapping is required")
			}
			m := make(map[string]string, len(mapping))
			for k, v := range mapping {
				m[k] = fmt.Sprint(v)
			}
			ts = append(ts, &RenameTransform{Mapping: m})

		case "select":
			fields, ok := tc.Config["fields"].([]any)
			if !ok || len(fields) == 0 {
				return nil, fmt.Errorf("select: fields is required")
			}
			ff := make([]string, 0, len(fields))
			for _, f := range fields {
				ff = append(ff, fmt.Sprint(f))
			}
			ts = append(ts, &SelectTransform{Fields: ff})

		default:
			return nil, fmt.Errorf("unknown transform type: %q", tc.Type)
		}
	}

	return ts, nil
}

// ParseRenames parses "old=new" pairs into a rename transform config.
func ParseRenames(pairs []string) (*TransformConfig, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	mapping := make(map[string]any, len(pairs))
	for _, p := range pairs {
		old, new_, ok := strings.Cut(p, "=")
		if !ok || old == "" || new_ == "" {
			return nil, fmt.Errorf("invalid rename %q: want old=new", p)
		}
		mapping[old] = new_
	}
	return &TransformConfig{Type: "rename", Config: map[string]any{"mapping": mapping}}, nil
}

// SelectConfig builds a select transform config from column names.
func SelectConfig(fields []string) *TransformConfig {
	if len(fields) == 0 {
		return nil
	}
	ff := make([]any, len(fields))
	for i, f := range fields {
		ff[i] = f
	}
	return &TransformConfig{Type: "select", Config: map[string]any{"fields": ff}}
}
