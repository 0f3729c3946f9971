package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"jsonload/internal/dbclient"
	"jsonload/internal/domain"
	"jsonload/internal/etl"
	"jsonload/internal/etl/sources"
	"jsonload/internal/logging"
)

// ─────────────────────────────────────────────────────────────
// Load Service: runs JSON→table loads and their triggers
// ─────────────────────────────────────────────────────────────

// Input formats, mapped to registered source types.
const (
	FormatObject = "object"
	FormatArray  = "array"
)

var formatSources = map[string]string{
	FormatObject: "json_object",
	FormatArray:  "json_array",
}

// watchDebounce coalesces the burst of write events an editor produces on save.
const watchDebounce = 500 * time.Millisecond

// ConnectorFactory opens a connector for a target. Replaced in tests.
type ConnectorFactory func(domain.DatabaseTarget) (dbclient.Connector, error)

// LoadService runs loads and keeps them from overlapping.
type LoadService struct {
	logger      logging.Logger
	emitter     EventEmitter
	connect     ConnectorFactory
	runningJobs runningLoadsGuard
}

// NewLoadService creates a LoadService. A nil emitter discards events.
func NewLoadService(logger logging.Logger, emitter EventEmitter) *LoadService {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &LoadService{
		logger:  logger,
		emitter: emitter,
		connect: dbclient.NewConnector,
	}
}

// WithConnectorFactory swaps the connector constructor.
func (s *LoadService) WithConnectorFactory(f ConnectorFactory) *LoadService {
	s.connect = f
	return s
}

// ── Input ──────────────────────────────────────────────────

// LoadInput is the user-facing description of one load.
type LoadInput struct {
	JSONPath  string   `json:"jsonPath"` // empty or "-" reads stdin
	DB        string   `json:"db"`
	Table     string   `json:"table"`
	Format    string   `json:"format,omitempty"` // "object" (default) | "array"
	Nested    string   `json:"nested,omitempty"` // "reject" (default) | "json"
	Mode      string   `json:"mode,omitempty"`   // "append" (default) | "replace"
	KeyColumn string   `json:"keyColumn,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	Renames   []string `json:"renames,omitempty"` // "old=new"
}

// Job validates the input and builds the load job and its target.
func (in LoadInput) Job(id string) (*etl.LoadJob, domain.DatabaseTarget, error) {
	target, err := domain.ParseTarget(in.DB)
	if err != nil {
		return nil, target, &domain.UsageError{Msg: fmt.Sprintf("--db: %v", err)}
	}
	if err := ValidateTable(in.Table); err != nil {
		return nil, target, err
	}
	job, err := in.SourceJob(id)
	if err != nil {
		return nil, target, err
	}
	job.FoldColumnNames = dbclient.FoldsColumnNames(target.Driver)
	return job, target, nil
}

// SourceJob builds the read side of the job: source, transforms and mode.
// The database target is not consulted.
func (in LoadInput) SourceJob(id string) (*etl.LoadJob, error) {
	format := in.Format
	if format == "" {
		format = FormatObject
	}
	sourceType, ok := formatSources[format]
	if !ok {
		return nil, &domain.UsageError{Msg: fmt.Sprintf("invalid format %q: want %s or %s", format, FormatObject, FormatArray)}
	}

	mode, err := etl.ParseSyncMode(in.Mode)
	if err != nil {
		return nil, &domain.UsageError{Msg: err.Error()}
	}

	var transforms []etl.TransformConfig
	if sel := etl.SelectConfig(in.Columns); sel != nil {
		transforms = append(transforms, *sel)
	}
	ren, err := etl.ParseRenames(in.Renames)
	if err != nil {
		return nil, &domain.UsageError{Msg: err.Error()}
	}
	if ren != nil {
		transforms = append(transforms, *ren)
	}

	switch in.Nested {
	case "", sources.NestedReject, sources.NestedJSON:
	default:
		return nil, &domain.UsageError{Msg: fmt.Sprintf("invalid nested mode %q: want %s or %s", in.Nested, sources.NestedReject, sources.NestedJSON)}
	}

	cfg := etl.SourceConfig{"filePath": in.JSONPath}
	if in.Nested != "" {
		cfg["nested"] = in.Nested
	}

	return &etl.LoadJob{
		ID:         id,
		SourceType: sourceType,
		SourceCfg:  cfg,
		Transforms: transforms,
		Table:      in.Table,
		Mode:       mode,
		KeyColumn:  in.KeyColumn,
	}, nil
}

// ValidateTable rejects table names no dialect can quote.
func ValidateTable(table string) error {
	switch {
	case strings.TrimSpace(table) == "":
		return &domain.UsageError{Msg: "--table must not be empty"}
	case strings.ContainsRune(table, 0):
		return &domain.UsageError{Msg: "--table must not contain NUL"}
	}
	return nil
}

// ── Run ────────────────────────────────────────────────────

// Run executes a single load synchronously. The input is fully read and
// validated before the database is opened, so a bad document never touches it.
func (s *LoadService) Run(ctx context.Context, in LoadInput) (*etl.SyncResult, error) {
	runID := uuid.New().String()
	job, target, err := in.Job(runID)
	if err != nil {
		return nil, err
	}

	key := target.String() + "|" + job.Table
	if !s.runningJobs.TryLock(key) {
		return nil, fmt.Errorf("a load into %s is already running", job.Table)
	}
	defer s.runningJobs.Unlock(key)

	s.logger.Verbose("load %s: %s → %s:%s (%s)", runID, displayPath(in.JSONPath), target, job.Table, job.Mode)

	engine := &etl.Engine{Dest: &targetWriter{target: target, connect: s.connect}}
	result, runErr := engine.RunSync(ctx, job)

	if runErr != nil {
		s.logger.Verbose("load %s: failed: %v", runID, runErr)
		s.emitter.Emit(ctx, EventLoadFailed, result)
		return result, runErr
	}

	s.logger.Verbose("load %s: %d row(s) written in %s", runID, result.RowsWritten, result.Duration.Round(time.Millisecond))
	s.emitter.Emit(ctx, EventLoadCompleted, result)
	return result, nil
}

// PreviewResult is the response from Preview.
type PreviewResult struct {
	Schema   *etl.Schema  `json:"schema"`
	RowCount int          `json:"rowCount"`
	Records  []etl.Record `json:"records"`
}

// Preview reads and validates the input without opening any database.
func (s *LoadService) Preview(ctx context.Context, in LoadInput, maxRows int) (*PreviewResult, error) {
	job, err := in.SourceJob(uuid.New().String())
	if err != nil {
		return nil, err
	}

	engine := &etl.Engine{}
	all, schema, err := engine.Preview(ctx, job, -1)
	if err != nil {
		return nil, err
	}
	records := all
	if maxRows >= 0 && len(records) > maxRows {
		records = records[:maxRows]
	}
	return &PreviewResult{Schema: schema, RowCount: len(all), Records: records}, nil
}

// Describe returns the declared columns of a table, or nil if it does not exist.
func (s *LoadService) Describe(ctx context.Context, db, table string) (*dbclient.TableInfo, error) {
	target, err := domain.ParseTarget(db)
	if err != nil {
		return nil, &domain.UsageError{Msg: fmt.Sprintf("--db: %v", err)}
	}
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	// Describing must not create a sqlite file as a side effect.
	if target.Driver == domain.DatabaseDriverSQLite {
		if _, err := os.Stat(target.DSN); errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
	}
	conn, err := s.connect(target)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.DescribeTable(ctx, table)
}

// Tables lists every table of db with its columns. A missing sqlite file has none.
func (s *LoadService) Tables(ctx context.Context, db string) (*dbclient.SchemaInfo, error) {
	target, err := domain.ParseTarget(db)
	if err != nil {
		return nil, &domain.UsageError{Msg: fmt.Sprintf("--db: %v", err)}
	}
	if target.Driver == domain.DatabaseDriverSQLite {
		if _, err := os.Stat(target.DSN); errors.Is(err, fs.ErrNotExist) {
			return &dbclient.SchemaInfo{}, nil
		}
	}
	conn, err := s.connect(target)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.Introspect(ctx)
}

// WaitRunning blocks until all running loads finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *LoadService) WaitRunning(ctx context.Context) {
	s.runningJobs.WaitAll(ctx)
}

// ── Triggers (cron + file watch) ───────────────────────────

// TriggerOptions selects what re-runs a load after the first one.
type TriggerOptions struct {
	Watch    bool   // reload when the JSON file is written
	Schedule string // cron expression; empty disables
}

// Enabled reports whether any trigger is configured.
func (o TriggerOptions) Enabled() bool {
	return o.Watch || o.Schedule != ""
}

// Validate checks the options without starting anything.
func (o TriggerOptions) Validate(in LoadInput) error {
	if o.Watch && (in.JSONPath == "" || in.JSONPath == "-") {
		return &domain.UsageError{Msg: "--watch needs --json to name a file"}
	}
	if o.Schedule != "" {
		if _, err := cron.ParseStandard(o.Schedule); err != nil {
			return &domain.UsageError{Msg: fmt.Sprintf("invalid --schedule %q: %v", o.Schedule, err)}
		}
	}
	return nil
}

// Serve re-runs in whenever a trigger fires, until ctx is cancelled.
// Failed runs are logged and do not stop the triggers.
func (s *LoadService) Serve(ctx context.Context, in LoadInput, opts TriggerOptions) error {
	if !opts.Enabled() {
		return nil
	}
	if err := opts.Validate(in); err != nil {
		return err
	}
	if _, _, err := in.Job(""); err != nil {
		return err
	}

	rerun := func(reason string) {
		result, err := s.Run(ctx, in)
		runID := "-"
		if result != nil {
			runID = result.JobID
		}
		if err != nil {
			s.logger.Error("%s: load %s into %s failed: %v", reason, runID, in.Table, err)
			return
		}
		s.logger.Info("%s: load %s: loaded %d row(s) into %s", reason, runID, result.RowsWritten, in.Table)
	}

	if opts.Schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(opts.Schedule, func() { rerun("cron") }); err != nil {
			return &domain.UsageError{Msg: fmt.Sprintf("invalid --schedule %q: %v", opts.Schedule, err)}
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		s.logger.Info("cron: scheduled %q", opts.Schedule)
	}

	if opts.Watch {
		return s.watchFile(ctx, in.JSONPath, func() { rerun("watcher") })
	}

	<-ctx.Done()
	return nil
}

// watchFile calls onChange, debounced, whenever path is written or
// recreated. It watches the parent directory so atomic-rename saves are seen.
// Blocks until ctx is cancelled.
func (s *LoadService) watchFile(ctx context.Context, path string, onChange func()) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watcher: bad path %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watcher: watch dir %q: %w", filepath.Dir(absPath), err)
	}
	s.logger.Info("watcher: watching %s", absPath)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, _ := filepath.Abs(event.Name); p != absPath {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: %v", err)
		}
	}
}

// ── Destination adapter ───────────────────────────────────

// targetWriter opens the target only when there is something to write and
// releases it on every exit path.
type targetWriter struct {
	target  domain.DatabaseTarget
	connect ConnectorFactory
}

func (w *targetWriter) Write(ctx context.Context, table string, schema *etl.Schema, records []etl.Record, mode etl.SyncMode) (n int, err error) {
	conn, err := w.connect(w.target)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = &domain.IOError{Target: w.target.String(), Op: "close", Err: cerr}
		}
	}()

	if err := conn.TestConnection(ctx); err != nil {
		return 0, err
	}
	return (&etl.TableWriter{Conn: conn}).Write(ctx, table, schema, records, mode)
}

func displayPath(p string) string {
	if p == "" || p == "-" {
		return sources.StdinPath
	}
	return p
}
