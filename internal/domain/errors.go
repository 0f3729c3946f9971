package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the load failure classes.
// Every typed error below unwraps to one of these, so callers may use
// errors.Is for the class and errors.As for the details.
var (
	ErrParse          = errors.New("parse error")
	ErrSchema         = errors.New("schema error")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrIO             = errors.New("i/o error")
	ErrUsage          = errors.New("usage error")
)

// Exit codes returned by the jsonload binary.
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitUsageError     = 2
	ExitPanic          = 3
	ExitParseError     = 10
	ExitSchemaError    = 11
	ExitSchemaMismatch = 12
	ExitIOError        = 13
)

// ParseError reports a JSON input that is missing, unreadable or malformed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// SchemaError reports a document whose shape is not an object of flat objects.
type SchemaError struct {
	Path   string
	Key    string // outer key of the offending record, if any
	Column string // column of the offending value, if any
	Reason string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema %s", e.Path)
	if e.Key != "" {
		fmt.Fprintf(&b, ": record %q", e.Key)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	return b.String()
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// SchemaMismatchError reports record columns absent from an existing table.
type SchemaMismatchError struct {
	Table   string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("table %q has no column(s) %s", e.Table, strings.Join(quoteAll(e.Missing), ", "))
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// IOError reports a database that could not be created, opened or written.
type IOError struct {
	Target string
	Op     string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// UsageError reports invalid command-line input detected after flag parsing.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func (e *UsageError) Unwrap() error { return ErrUsage }

// ExitCodeForError returns the process exit code for err.
// Returns ExitSuccess for nil, a class code for load errors and
// ExitGeneralError for anything unclassified.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrParse):
		return ExitParseError
	case errors.Is(err, ErrSchemaMismatch):
		return ExitSchemaMismatch
	case errors.Is(err, ErrSchema):
		return ExitSchemaError
	case errors.Is(err, ErrIO):
		return ExitIOError
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	}

	// cobra reports flag problems as plain errors
	errStr := err.Error()
	for _, pattern := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"required flag",
		"invalid argument",
		"flag needs an argument",
		"accepts ",
	} {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
