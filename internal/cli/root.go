package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jsonload/internal/domain"
	"jsonload/internal/etl"
	"jsonload/internal/logging"
	"jsonload/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "jsonload --db DB --table TABLE [--json JSON]",
	Short: "Load a JSON document of records into a database table",
	Long: `jsonload reads a JSON object mapping keys to records and inserts one row per
record into TABLE, creating the database and the table if absent. Columns are
the union of the record keys in first-seen order; types are inferred from the
values. Existing tables are appended to. A run is all-or-nothing.

DB is a sqlite file path, or a postgres://, mysql:// or mongodb:// URL.
Without --json (or with --json -) the document is read from standard input.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - JSON missing, unreadable or invalid
  11 - Document has the wrong shape
  12 - Record column missing from the existing table
  13 - Database I/O failed`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runLoad,
}

type loadFlagValues struct {
	db        string
	table     string
	json      string
	keyColumn string
	mode      string
	nested    string
	format    string
	columns   []string
	renames   []string
	dryRun    bool
	watch     bool
	schedule  string
}

var loadFlags loadFlagValues

// stdinIsTerminal is swapped in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newLoadService is swapped in tests.
var newLoadService = func(logger logging.Logger) *service.LoadService {
	return service.NewLoadService(logger, nil)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	f := rootCmd.Flags()
	f.StringVar(&loadFlags.db, "db", "", "Target database: sqlite file path or postgres://, mysql://, mongodb:// URL (required)")
	f.StringVar(&loadFlags.table, "table", "", "Target table name (required)")
	f.StringVar(&loadFlags.json, "json", "", "JSON input file; omitted or - reads standard input")
	f.StringVar(&loadFlags.keyColumn, "key-column", "", "Store each record's outer key in this column")
	f.StringVar(&loadFlags.mode, "mode", string(etl.SyncAppend), "Write mode: append or replace")
	f.StringVar(&loadFlags.nested, "nested", "reject", "Nested objects/arrays: reject or json (store as JSON text)")
	f.StringVar(&loadFlags.format, "format", service.FormatObject, "Document shape: object ({key: record}) or array ([record])")
	f.StringSliceVar(&loadFlags.columns, "columns", nil, "Keep only these columns (comma-separated)")
	f.StringArrayVar(&loadFlags.renames, "rename", nil, "Rename a column, old=new (repeatable)")
	f.BoolVar(&loadFlags.dryRun, "dry-run", false, "Validate and print the inferred schema without touching the database")
	f.BoolVar(&loadFlags.watch, "watch", false, "Reload whenever the JSON file changes")
	f.StringVar(&loadFlags.schedule, "schedule", "", "Reload on a cron schedule (e.g. \"*/5 * * * *\")")

	_ = rootCmd.MarkFlagRequired("db")
	_ = rootCmd.MarkFlagRequired("table")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

func (f loadFlagValues) input() service.LoadInput {
	return service.LoadInput{
		JSONPath:  f.json,
		DB:        f.db,
		Table:     f.table,
		Format:    f.format,
		Nested:    f.nested,
		Mode:      f.mode,
		KeyColumn: f.keyColumn,
		Columns:   f.columns,
		Renames:   f.renames,
	}
}

func (f loadFlagValues) triggers() service.TriggerOptions {
	return service.TriggerOptions{Watch: f.watch, Schedule: f.schedule}
}

func readsStdin(path string) bool {
	return path == "" || path == "-"
}

func runLoad(cmd *cobra.Command, args []string) error {
	in := loadFlags.input()
	opts := loadFlags.triggers()

	if err := opts.Validate(in); err != nil {
		return err
	}
	if loadFlags.dryRun && opts.Enabled() {
		return &domain.UsageError{Msg: "--dry-run cannot be combined with --watch or --schedule"}
	}
	if readsStdin(in.JSONPath) && stdinIsTerminal() {
		return &domain.UsageError{Msg: "no --json given and standard input is a terminal; pass --json FILE or pipe a document"}
	}

	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	svc := newLoadService(logger)

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()

	if loadFlags.dryRun {
		preview, err := svc.Preview(ctx, in, 0)
		if err != nil {
			return err
		}
		printSchema(out, in.Table, preview.Schema, preview.RowCount)
		return nil
	}

	result, err := svc.Run(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d row(s) from %s into %s:%s\n",
		result.RowsWritten, displayInput(in.JSONPath), in.DB, in.Table)

	if !opts.Enabled() {
		return nil
	}
	err = svc.Serve(ctx, in, opts)
	svc.WaitRunning(context.Background())
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func displayInput(path string) string {
	if readsStdin(path) {
		return "standard input"
	}
	return path
}

func printSchema(w io.Writer, table string, schema *etl.Schema, rows int) {
	fmt.Fprintf(w, "Table %s: %d row(s)\n", table, rows)
	if schema == nil || len(schema.Fields) == 0 {
		fmt.Fprintln(w, "  (no columns)")
		return
	}
	width := 0
	for _, f := range schema.Fields {
		width = max(width, len(f.Name))
	}
	for _, f := range schema.Fields {
		fmt.Fprintf(w, "  %s%s  %s\n", f.Name, strings.Repeat(" ", width-len(f.Name)), f.Type)
	}
}
