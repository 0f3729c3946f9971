package sources

import (
	"context"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"

	"jsonload/internal/domain"
	"jsonload/internal/etl"
)

// ── JSON Array Source ───────────────────────────────────────
// Reads [{column: scalar, ...}, ...] documents.
// The element index is used as the record key.

type jsonArraySource struct{}

func init() { etl.RegisterSource(&jsonArraySource{}) }

func (s *jsonArraySource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:         "json_array",
		Label:        "JSON array of records",
		ConfigFields: commonConfigFields,
	}
}

func (s *jsonArraySource) Read(ctx context.Context, cfg etl.SourceConfig) ([]etl.Record, error) {
	nested, err := nestedMode(cfg)
	if err != nil {
		return nil, err
	}
	path, data, err := readInput(cfg)
	if err != nil {
		return nil, err
	}

	if vt := topLevelType(data); vt != jsonparser.Array {
		return nil, &domain.SchemaError{Path: path, Reason: fmt.Sprintf("top-level value must be an array, got %s", typeName(vt))}
	}

	var (
		records  []etl.Record
		firstErr error
		i        int
	)
	_, err = jsonparser.ArrayEach(data, func(value []byte, vt jsonparser.ValueType, _ int, _ error) {
		if firstErr != nil {
			return
		}
		key := strconv.Itoa(i)
		i++
		if err := ctx.Err(); err != nil {
			firstErr = err
			return
		}
		if vt != jsonparser.Object {
			firstErr = &domain.SchemaError{Path: path, Key: key, Reason: fmt.Sprintf("record must be an object, got %s", typeName(vt))}
			return
		}
		rec, err := parseRecord(path, key, value, nested)
		if err != nil {
			firstErr = err
			return
		}
		records = append(records, rec)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	if err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}
	return records, nil
}
