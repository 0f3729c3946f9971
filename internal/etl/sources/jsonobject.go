package sources

import (
	"context"
	"fmt"

	"github.com/buger/jsonparser"

	"jsonload/internal/domain"
	"jsonload/internal/etl"
)

// ── JSON Object Source ──────────────────────────────────────
// Reads {outerKey: {column: scalar, ...}, ...} documents.
// Each outer key becomes one record, in document order.

type jsonObjectSource struct{}

func init() { etl.RegisterSource(&jsonObjectSource{}) }

func (s *jsonObjectSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:         "json_object",
		Label:        "JSON object of records",
		ConfigFields: commonConfigFields,
	}
}

func (s *jsonObjectSource) Read(ctx context.Context, cfg etl.SourceConfig) ([]etl.Record, error) {
	nested, err := nestedMode(cfg)
	if err != nil {
		return nil, err
	}
	path, data, err := readInput(cfg)
	if err != nil {
		return nil, err
	}

	if vt := topLevelType(data); vt != jsonparser.Object {
		return nil, &domain.SchemaError{Path: path, Reason: fmt.Sprintf("top-level value must be an object, got %s", typeName(vt))}
	}

	var records []etl.Record
	index := make(map[string]int)
	err = jsonparser.ObjectEach(data, func(k, value []byte, vt jsonparser.ValueType, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := string(k)
		if vt != jsonparser.Object {
			return &domain.SchemaError{Path: path, Key: key, Reason: fmt.Sprintf("record must be an object, got %s", typeName(vt))}
		}
		rec, err := parseRecord(path, key, value, nested)
		if err != nil {
			return err
		}
		// A repeated outer key keeps its first position and its last value.
		if i, dup := index[key]; dup {
			records[i] = rec
			return nil
		}
		index[key] = len(records)
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
