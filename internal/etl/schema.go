package etl

import (
	"encoding/json"
	"strconv"

	"jsonload/internal/domain"
)

// InferSchema derives the column list from records.
// Columns appear in first-seen order across records. A column takes the
// type of its first non-null value; integer and float widen to float and
// any other disagreement makes the column text.
func InferSchema(records []Record) *Schema {
	types := make(map[string]domain.ColumnType)
	var names []string

	for _, rec := range records {
		for _, name := range rec.Order {
			t := ValueType(rec.Data[name])
			prev, seen := types[name]
			if !seen {
				names = append(names, name)
				types[name] = t
				continue
			}
			types[name] = mergeTypes(prev, t)
		}
	}

	fields := make([]Field, 0, len(names))
	for _, n := range names {
		fields = append(fields, Field{Name: n, Type: types[n]})
	}
	return &Schema{Fields: fields}
}

// ValueType returns the logical column type of a decoded scalar.
func ValueType(v any) domain.ColumnType {
	switch v.(type) {
	case nil:
		return domain.ColTypeNull
	case int64:
		return domain.ColTypeInteger
	case float64:
		return domain.ColTypeFloat
	case bool:
		return domain.ColTypeBoolean
	default:
		return domain.ColTypeText
	}
}

func mergeTypes(prev, next domain.ColumnType) domain.ColumnType {
	switch {
	case prev == next:
		return prev
	case prev == domain.ColTypeNull:
		return next
	case next == domain.ColTypeNull:
		return prev
	case isNumeric(prev) && isNumeric(next):
		return domain.ColTypeFloat
	default:
		return domain.ColTypeText
	}
}

func isNumeric(t domain.ColumnType) bool {
	return t == domain.ColTypeInteger || t == domain.ColTypeFloat
}

// CoerceRecords rewrites values so each matches its column's final type:
// integers in float columns become float64 and anything in a text column
// becomes its text rendering.
func CoerceRecords(records []Record, schema *Schema) {
	for _, f := range schema.Fields {
		for i := range records {
			v, ok := records[i].Data[f.Name]
			if !ok || v == nil {
				continue
			}
			records[i].Data[f.Name] = coerceValue(v, f.Type)
		}
	}
}

func coerceValue(v any, t domain.ColumnType) any {
	switch t {
	case domain.ColTypeFloat:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	case domain.ColTypeText:
		return textValue(v)
	}
	return v
}

func textValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
