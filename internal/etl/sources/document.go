package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/buger/jsonparser"

	"jsonload/internal/domain"
	"jsonload/internal/etl"
)

// Stdin is read when the configured file path is empty or "-".
var Stdin io.Reader = os.Stdin

// StdinPath is the name reported in errors for standard input.
const StdinPath = "<stdin>"

// Nested value handling modes.
const (
	NestedReject = "reject" // objects/arrays inside a record are a schema error
	NestedJSON   = "json"   // objects/arrays are stored as compact JSON text
)

// commonConfigFields are shared by the JSON sources.
var commonConfigFields = []etl.ConfigField{
	{Key: "filePath", Label: "File Path", Required: false, Help: "Path to the JSON file; empty or '-' reads standard input"},
	{Key: "nested", Label: "Nested Values", Options: []string{NestedReject, NestedJSON}, Default: NestedReject, Help: "How objects and arrays inside a record are handled"},
}

// readInput returns the display path and raw bytes of the configured input,
// failing with a ParseError when it cannot be read or is not valid JSON.
func readInput(cfg etl.SourceConfig) (string, []byte, error) {
	filePath, _ := cfg["filePath"].(string)

	var (
		data []byte
		err  error
	)
	if filePath == "" || filePath == "-" {
		filePath = StdinPath
		data, err = io.ReadAll(Stdin)
	} else {
		data, err = os.ReadFile(filePath)
	}
	if err != nil {
		return filePath, nil, &domain.ParseError{Path: filePath, Err: fmt.Errorf("read file: %w", err)}
	}

	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		if err == nil {
			err = fmt.Errorf("invalid json")
		}
		return filePath, nil, &domain.ParseError{Path: filePath, Err: err}
	}
	return filePath, data, nil
}

func nestedMode(cfg etl.SourceConfig) (string, error) {
	mode, _ := cfg["nested"].(string)
	switch mode {
	case "":
		return NestedReject, nil
	case NestedReject, NestedJSON:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid nested mode %q: want %s or %s", mode, NestedReject, NestedJSON)
	}
}

// topLevelType reports the JSON type of the document root.
func topLevelType(data []byte) jsonparser.ValueType {
	_, vt, _, err := jsonparser.Get(data)
	if err != nil {
		return jsonparser.Unknown
	}
	return vt
}

// parseRecord decodes one inner mapping into a Record, preserving key order.
func parseRecord(path, key string, raw []byte, nested string) (etl.Record, error) {
	rec := etl.NewRecord(key)
	err := jsonparser.ObjectEach(raw, func(k, value []byte, vt jsonparser.ValueType, _ int) error {
		col := string(k)
		if col == "" {
			return &domain.SchemaError{Path: path, Key: key, Reason: "empty column name"}
		}
		v, err := scalarValue(value, vt, nested)
		if err != nil {
			return &domain.SchemaError{Path: path, Key: key, Column: col, Reason: err.Error()}
		}
		rec.Set(col, v)
		return nil
	})
	if err != nil {
		return etl.Record{}, err
	}
	return rec, nil
}

// scalarValue converts a raw JSON value to int64, float64, string, bool or nil.
func scalarValue(value []byte, vt jsonparser.ValueType, nested string) (any, error) {
	switch vt {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.String:
		str, err := jsonparser.ParseString(value)
		if err != nil {
			return nil, fmt.Errorf("invalid string escape in %q", truncate(string(value), 32))
		}
		return str, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Number:
		if !bytes.ContainsAny(value, ".eE") {
			if n, err := jsonparser.ParseInt(value); err == nil {
				return n, nil
			}
		}
		f, err := jsonparser.ParseFloat(value)
		if err != nil {
			return nil, fmt.Errorf("number %s is out of range", truncate(string(value), 32))
		}
		return f, nil
	case jsonparser.Object, jsonparser.Array:
		if nested != NestedJSON {
			return nil, fmt.Errorf("value must be a scalar, got %s", typeName(vt))
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, value); err != nil {
			return nil, err
		}
		return buf.String(), nil
	default:
		return nil, fmt.Errorf("unsupported value %q", truncate(string(value), 32))
	}
}

func typeName(vt jsonparser.ValueType) string {
	switch vt {
	case jsonparser.Object:
		return "object"
	case jsonparser.Array:
		return "array"
	case jsonparser.String:
		return "string"
	case jsonparser.Number:
		return "number"
	case jsonparser.Boolean:
		return "boolean"
	case jsonparser.Null:
		return "null"
	default:
		return "unknown"
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
