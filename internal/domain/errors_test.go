package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"parse", &ParseError{Path: "in.json", Err: fs.ErrNotExist}, ExitParseError},
		{"schema", &SchemaError{Path: "in.json", Reason: "top-level value must be an object"}, ExitSchemaError},
		{"mismatch", &SchemaMismatchError{Table: "t", Missing: []string{"z"}}, ExitSchemaMismatch},
		{"io", &IOError{Target: "db.sqlite", Op: "commit", Err: errors.New("disk full")}, ExitIOError},
		{"usage", &UsageError{Msg: "--table must not be empty"}, ExitUsageError},
		{"wrapped schema", fmt.Errorf("load: %w", &SchemaError{Reason: "x"}), ExitSchemaError},
		{"cobra unknown flag", errors.New("unknown flag: --nope"), ExitUsageError},
		{"cobra required flag", errors.New(`required flag(s) "db" not set`), ExitUsageError},
		{"cobra args", errors.New(`unknown command "x" for "jsonload"`), ExitUsageError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

func TestParseError_UnwrapsCauseAndClass(t *testing.T) {
	err := error(&ParseError{Path: "missing.json", Err: fs.ErrNotExist})

	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "missing.json")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "missing.json", pe.Path)
}

func TestSchemaError_Message(t *testing.T) {
	err := &SchemaError{Path: "in.json", Key: "a", Column: "x", Reason: "value must be a scalar, got object"}
	assert.Equal(t, `schema in.json: record "a" column "x": value must be a scalar, got object`, err.Error())

	bare := &SchemaError{Path: "in.json", Reason: "top-level value must be an object, got array"}
	assert.Equal(t, "schema in.json: top-level value must be an object, got array", bare.Error())
}

func TestSchemaMismatchError_ListsMissingColumns(t *testing.T) {
	err := &SchemaMismatchError{Table: "t", Missing: []string{"z", "w"}}
	assert.Equal(t, `table "t" has no column(s) "z", "w"`, err.Error())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.NotErrorIs(t, err, ErrSchema)
}

func TestIOError_UnwrapsCause(t *testing.T) {
	cause := errors.New("database is locked")
	err := &IOError{Target: "db.sqlite", Op: "insert row 0", Err: cause}
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert row 0 db.sqlite: database is locked", err.Error())
}
