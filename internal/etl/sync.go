package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jsonload/internal/domain"
)

// ── LoadJob ────────────────────────────────────────────────
// Orchestrates: source.Read → transform chain → schema inference → destination.Write.
//
// Pattern: Airbyte sync / Singer tap→target pipeline.

// LoadJob holds the configuration for a single load.
type LoadJob struct {
	ID              string            `json:"id"`
	SourceType      string            `json:"sourceType"`
	SourceCfg       SourceConfig      `json:"sourceConfig"`
	Transforms      []TransformConfig `json:"transforms,omitempty"`
	Table           string            `json:"table"`
	Mode            SyncMode          `json:"mode"`
	KeyColumn       string            `json:"keyColumn,omitempty"`       // store the outer key under this column
	FoldColumnNames bool              `json:"foldColumnNames,omitempty"` // names differing only in case collide
}

// SyncResult is the outcome of running a load.
type SyncResult struct {
	JobID       string        `json:"jobId"`
	Table       string        `json:"table"`
	Status      string        `json:"status"` // "success" | "error"
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
	Schema      *Schema       `json:"schema,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs loads using the registered sources and a destination.
type Engine struct {
	Dest Destination
}

// RunSync executes a load end-to-end.
func (e *Engine) RunSync(ctx context.Context, job *LoadJob) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{JobID: job.ID, Table: job.Table}
	fail := func(stage string, err error) (*SyncResult, error) {
		result.Status = "error"
		result.Error = fmt.Sprintf("%s: %s", stage, err)
		result.Duration = time.Since(start)
		return result, err
	}

	// 1-3. Read, transform, infer.
	records, schema, rowsRead, err := e.prepare(ctx, job)
	result.RowsRead = rowsRead
	if err != nil {
		return fail("read", err)
	}
	result.Schema = schema

	// 4. Write to destination.
	written, err := e.Dest.Write(ctx, job.Table, schema, records, job.Mode)
	if err != nil {
		return fail("write", err)
	}

	result.Status = "success"
	result.RowsWritten = written
	result.Duration = time.Since(start)
	return result, nil
}

// Preview executes only the read phase and returns up to maxRows records
// together with the schema inferred from all of them.
func (e *Engine) Preview(ctx context.Context, job *LoadJob, maxRows int) ([]Record, *Schema, error) {
	records, schema, _, err := e.prepare(ctx, job)
	if err != nil {
		return nil, nil, err
	}
	if maxRows >= 0 && len(records) > maxRows {
		records = records[:maxRows]
	}
	return records, schema, nil
}

// prepare reads the source and returns coerced records ready to write.
func (e *Engine) prepare(ctx context.Context, job *LoadJob) ([]Record, *Schema, int, error) {
	source, err := GetSource(job.SourceType)
	if err != nil {
		return nil, nil, 0, &domain.UsageError{Msg: err.Error()}
	}
	transformers, err := BuildTransformers(job.Transforms)
	if err != nil {
		return nil, nil, 0, &domain.UsageError{Msg: err.Error()}
	}

	read, err := source.Read(ctx, job.SourceCfg)
	if err != nil {
		return nil, nil, 0, err
	}

	records := make([]Record, 0, len(read))
	for _, rec := range read {
		transformed, keep := ApplyTransformers(rec, transformers)
		if !keep {
			continue
		}
		if job.KeyColumn != "" {
			if transformed, err = withKeyColumn(transformed, job.KeyColumn); err != nil {
				path, _ := job.SourceCfg["filePath"].(string)
				return nil, nil, len(read), &domain.SchemaError{Path: path, Key: rec.Key, Column: job.KeyColumn, Reason: err.Error()}
			}
		}
		records = append(records, transformed)
	}

	schema := InferSchema(records)
	if first, dup, ok := duplicateColumn(schema, job.FoldColumnNames); ok {
		path, _ := job.SourceCfg["filePath"].(string)
		return nil, nil, len(read), &domain.SchemaError{
			Path:   path,
			Column: dup,
			Reason: fmt.Sprintf("collides with column %q (the target compares column names case-insensitively)", first),
		}
	}
	if job.KeyColumn != "" && len(schema.Fields) == 0 {
		schema.Fields = []Field{{Name: job.KeyColumn, Type: domain.ColTypeText}}
	}
	CoerceRecords(records, schema)
	return records, schema, len(read), nil
}

// duplicateColumn finds two schema fields whose names are equal once
// case is folded. Without folding every name is already distinct.
func duplicateColumn(schema *Schema, fold bool) (first, dup string, ok bool) {
	if !fold {
		return "", "", false
	}
	seen := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		key := strings.ToLower(f.Name)
		if prev, clash := seen[key]; clash {
			return prev, f.Name, true
		}
		seen[key] = f.Name
	}
	return "", "", false
}

// withKeyColumn returns r with its outer key stored as the first column.
func withKeyColumn(r Record, column string) (Record, error) {
	if _, clash := r.Data[column]; clash {
		return r, fmt.Errorf("key column collides with a record column")
	}
	out := NewRecord(r.Key)
	out.Set(column, r.Key)
	for _, name := range r.Order {
		out.Set(name, r.Data[name])
	}
	return out, nil
}
