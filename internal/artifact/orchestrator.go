// Package artifact drives the persistence lifecycle for one ingested
// batch: raw audit append, base table replacement, search indexing, and
// Parquet export with embedded metadata.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dbsmedya/repolake/internal/config"
	"github.com/dbsmedya/repolake/internal/database"
	"github.com/dbsmedya/repolake/internal/logger"
	"github.com/dbsmedya/repolake/internal/normalize"
	"github.com/dbsmedya/repolake/internal/response"
	"github.com/dbsmedya/repolake/internal/types"
)

// RawTable is the append-only audit table. It is the only table that
// grows across runs; base and derived tables are fully replaced.
const RawTable = "raw_responses"

// Table family prefixes.
const (
	PrefixRaw     = "raw_"
	PrefixBase    = "base_"
	PrefixDerived = "agg_"
)

// Options configures one orchestrator run.
type Options struct {
	RunID       string
	ExportDir   string
	Compression string
	Indexes     []config.IndexSpec
}

// TableOutcome reports one persisted table.
type TableOutcome struct {
	Name     string
	RowCount int
}

// IndexOutcome reports one index request. Skipped indexes are not errors.
type IndexOutcome struct {
	Table   string
	Column  string
	Created bool
	Reason  string
}

// ExportOutcome reports one table's export attempt. A nil Err means the
// file at Path was written.
type ExportOutcome struct {
	Table string
	Path  string
	Err   error
}

// Result is the outcome of one full orchestrator run.
type Result struct {
	RunID       string
	QueryType   string
	RecordCount int
	Tables      []TableOutcome
	Indexes     []IndexOutcome
	Exports     []ExportOutcome
}

// ExportFailures returns the exports that did not complete.
func (r *Result) ExportFailures() []ExportOutcome {
	var failed []ExportOutcome
	for _, exp := range r.Exports {
		if exp.Err != nil {
			failed = append(failed, exp)
		}
	}
	return failed
}

// Orchestrator owns the single store connection for the duration of a
// run; normalization and persistence are strictly sequential.
type Orchestrator struct {
	store    *database.Store
	registry *normalize.Registry
	log      *logger.Logger
	now      func() time.Time
}

// New creates an orchestrator.
func New(store *database.Store, registry *normalize.Registry, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		registry: registry,
		log:      log,
		now:      time.Now,
	}
}

// Run executes the full lifecycle for one batch of records sharing a
// query type. The raw append happens before normalization so ingestion
// stays replayable even when normalization fails.
func (o *Orchestrator) Run(ctx context.Context, records []response.Record, opts Options) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("empty record batch")
	}
	queryType := records[0].QueryType
	log := o.log.WithQuery(queryType)

	result := &Result{
		RunID:       opts.RunID,
		QueryType:   queryType,
		RecordCount: len(records),
	}

	if err := o.appendRaw(ctx, records, opts.RunID); err != nil {
		return nil, fmt.Errorf("failed to append raw responses: %w", err)
	}
	log.Infow("raw responses appended", "count", len(records))

	normalizer, err := o.registry.Get(queryType)
	if err != nil {
		return nil, err
	}
	tables, err := normalizer.Normalize(records)
	if err != nil {
		return nil, fmt.Errorf("normalization failed: %w", err)
	}

	descriptions := make(map[string]map[string]string, len(tables))
	for _, table := range tables {
		if err := o.store.ReplaceTable(ctx, table); err != nil {
			return nil, fmt.Errorf("failed to persist table %s: %w", table.Name, err)
		}
		result.Tables = append(result.Tables, TableOutcome{Name: table.Name, RowCount: table.RowCount()})
		descriptions[table.Name] = columnDescriptions(table)
		log.WithTable(table.Name).Infow("table replaced", "rows", table.RowCount())
	}

	result.Indexes = o.createIndexes(ctx, opts.Indexes, log)

	exports, err := o.exportTables(ctx, queryType, opts, descriptions, log)
	if err != nil {
		return nil, err
	}
	result.Exports = exports

	return result, nil
}

// ExportAll re-exports every known table family to Parquet without
// touching table contents.
func (o *Orchestrator) ExportAll(ctx context.Context, queryType string, opts Options) ([]ExportOutcome, error) {
	return o.exportTables(ctx, queryType, opts, nil, o.log.WithQuery(queryType))
}

// appendRaw writes one audit row per record. Payloads are stored verbatim.
func (o *Orchestrator) appendRaw(ctx context.Context, records []response.Record, runID string) error {
	builder := types.NewTableBuilder(RawTable,
		types.Column{Name: "id", Type: types.TypeText, Description: "Composite key: run ID / record ordinal"},
		types.Column{Name: "run_id", Type: types.TypeText, Description: "Ingestion run identifier"},
		types.Column{Name: "query_type", Type: types.TypeText, Description: "Query type tag"},
		types.Column{Name: "entity_key", Type: types.TypeText, Description: "Human-readable entity key"},
		types.Column{Name: "params", Type: types.TypeText, Description: "Request parameters as JSON"},
		types.Column{Name: "fetched_at", Type: types.TypeTimestamp, Description: "Capture time"},
		types.Column{Name: "payload", Type: types.TypeText, Description: "Verbatim response payload"},
	)

	for i, record := range records {
		params, err := json.Marshal(record.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params for record %d: %w", i, err)
		}
		if err := builder.AppendRow(map[string]any{
			"id":         runID + "/" + strconv.Itoa(i),
			"run_id":     runID,
			"query_type": record.QueryType,
			"entity_key": record.EntityKey(),
			"params":     string(params),
			"fetched_at": record.FetchedAt,
			"payload":    string(record.Payload),
		}); err != nil {
			return err
		}
	}

	return o.store.AppendRows(ctx, builder.Build())
}

// createIndexes requests full-text indexes for the configured pairs.
// Missing tables or columns are skipped, never fatal: schemas vary across
// query types and optional extended fields.
func (o *Orchestrator) createIndexes(ctx context.Context, specs []config.IndexSpec, log *logger.Logger) []IndexOutcome {
	outcomes := make([]IndexOutcome, 0, len(specs))
	for _, spec := range specs {
		outcome := IndexOutcome{Table: spec.Table, Column: spec.Column}

		exists, err := o.store.TableExists(ctx, spec.Table)
		if err != nil || !exists {
			outcome.Reason = "table not present"
			log.Warnw("index skipped", "table", spec.Table, "column", spec.Column, "reason", outcome.Reason)
			outcomes = append(outcomes, outcome)
			continue
		}
		hasColumn, err := o.store.ColumnExists(ctx, spec.Table, spec.Column)
		if err != nil || !hasColumn {
			outcome.Reason = "column not present"
			log.Warnw("index skipped", "table", spec.Table, "column", spec.Column, "reason", outcome.Reason)
			outcomes = append(outcomes, outcome)
			continue
		}

		if err := o.store.CreateSearchIndex(ctx, spec.Table, spec.Column); err != nil {
			outcome.Reason = err.Error()
			log.Warnw("index skipped", "table", spec.Table, "column", spec.Column, "error", err)
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Created = true
		log.Infow("index created", "table", spec.Table, "column", spec.Column)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// exportTables writes every raw, base, and derived table to Parquet.
// Failures are isolated per table; the overall result reports them
// without stopping the remaining exports.
func (o *Orchestrator) exportTables(ctx context.Context, queryType string, opts Options, descriptions map[string]map[string]string, log *logger.Logger) ([]ExportOutcome, error) {
	if err := os.MkdirAll(opts.ExportDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", opts.ExportDir, err)
	}

	names, err := o.listAllTables(ctx)
	if err != nil {
		return nil, err
	}

	generatedAt := o.now().UTC().Format(time.RFC3339)
	outcomes := make([]ExportOutcome, 0, len(names))
	for _, name := range names {
		outcome := ExportOutcome{
			Table: name,
			Path:  filepath.Join(opts.ExportDir, name+".parquet"),
		}

		metadata := map[string]string{
			"source":       "repolake",
			"query_type":   queryType,
			"generated_at": generatedAt,
		}
		if opts.RunID != "" {
			metadata["run_id"] = opts.RunID
		}
		if count, err := o.store.RowCount(ctx, name); err == nil {
			metadata["row_count"] = strconv.FormatInt(count, 10)
		}
		for column, description := range descriptions[name] {
			metadata["column:"+column] = description
		}

		if err := o.store.ExportParquet(ctx, name, outcome.Path, opts.Compression, metadata); err != nil {
			outcome.Err = err
			log.WithTable(name).Errorw("export failed", "error", err)
		} else {
			log.WithTable(name).Infow("table exported", "path", outcome.Path)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// listAllTables collects the three table families in a stable order.
func (o *Orchestrator) listAllTables(ctx context.Context) ([]string, error) {
	var names []string
	for _, prefix := range []string{PrefixRaw, PrefixBase, PrefixDerived} {
		family, err := o.store.ListTables(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s tables: %w", prefix, err)
		}
		names = append(names, family...)
	}
	return names, nil
}

// columnDescriptions maps column names to their documented descriptions.
func columnDescriptions(table types.Table) map[string]string {
	descriptions := make(map[string]string, len(table.Columns))
	for _, col := range table.Columns {
		if col.Description != "" {
			descriptions[col.Name] = col.Description
		}
	}
	return descriptions
}
