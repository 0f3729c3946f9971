package etl

import "jsonload/internal/domain"

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// All sources emit Records, all destinations consume Records.
// Inspired by the Airbyte record protocol / Singer record message.

// Field describes a single column in a dataset.
type Field struct {
	Name string            `json:"name"`
	Type domain.ColumnType `json:"type"`
}

// Schema describes the shape of records coming from a source.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Columns converts the schema into target table columns.
func (s *Schema) Columns() []domain.Column {
	cols := make([]domain.Column, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = domain.Column{Name: f.Name, Type: f.Type}
	}
	return cols
}

// Record is a single row of data flowing through the pipeline.
// Key is the outer key it was read under; Order keeps the column order
// in which the source produced the values.
type Record struct {
	Key   string         `json:"key"`
	Order []string       `json:"order"`
	Data  map[string]any `json:"data"`
}

// NewRecord returns an empty record for the given outer key.
func NewRecord(key string) Record {
	return Record{Key: key, Data: map[string]any{}}
}

// Set assigns a column value, appending the column to Order on first use.
func (r *Record) Set(name string, v any) {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	if _, ok := r.Data[name]; !ok {
		r.Order = append(r.Order, name)
	}
	r.Data[name] = v
}

// Get returns the value of a column and whether the record has it.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.Data[name]
	return v, ok
}

// Values returns the record's values in the order of names.
// Columns the record does not have are nil.
func (r Record) Values(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = r.Data[n]
	}
	return out
}
