package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/dbsmedya/repolake/internal/sqlutil"
	"github.com/dbsmedya/repolake/internal/types"
)

// Store provides the table-level operations the pipeline needs against
// the analytical store. It works on a plain *sql.DB so tests can inject
// a mocked connection.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// TableExists reports whether a table is present in the main schema.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?"
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

// ColumnExists reports whether a column is present on a table.
func (s *Store) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM information_schema.columns WHERE table_name = ? AND column_name = ?"
	if err := s.db.QueryRowContext(ctx, query, table, column).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// RowCount returns the number of rows in a table.
func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	quoted, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// ListTables returns the names of tables whose name starts with prefix,
// sorted alphabetically. LIKE wildcards in the prefix are escaped so the
// underscore in raw_/base_/agg_ matches literally.
func (s *Store) ListTables(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT table_name FROM information_schema.tables WHERE table_name LIKE ? ESCAPE '\' ORDER BY table_name`
	rows, err := s.db.QueryContext(ctx, query, escapeLikePattern(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}
	return names, nil
}

// ReplaceTable drops and recreates a table with the given contents
// inside a single transaction. Callers rerunning an ingest get the
// latest snapshot rather than accumulated duplicates.
func (s *Store) ReplaceTable(ctx context.Context, table types.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quoted, err := sqlutil.QuoteIdentifierSafe(table.Name)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoted)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table.Name, err)
	}

	createSQL, err := buildCreateTable(table, false)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Name, err)
	}

	if err := insertRows(ctx, tx, table); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", table.Name, err)
	}
	return nil
}

// AppendRows creates the table if needed and appends the given rows,
// preserving any existing contents.
func (s *Store) AppendRows(ctx context.Context, table types.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createSQL, err := buildCreateTable(table, true)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to ensure table %s: %w", table.Name, err)
	}

	if err := insertRows(ctx, tx, table); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", table.Name, err)
	}
	return nil
}

// CreateSearchIndex builds a full-text index over one column of a table.
// The table's "id" column is used as the document identifier.
func (s *Store) CreateSearchIndex(ctx context.Context, table, column string) error {
	if !sqlutil.IsValidIdentifier(table) {
		return &sqlutil.InvalidIdentifierError{Name: table}
	}
	if !sqlutil.IsValidIdentifier(column) {
		return &sqlutil.InvalidIdentifierError{Name: column}
	}

	pragma := fmt.Sprintf("PRAGMA create_fts_index(%s, 'id', %s, overwrite = 1)",
		sqlutil.QuoteLiteral(table), sqlutil.QuoteLiteral(column))
	if _, err := s.db.ExecContext(ctx, pragma); err != nil {
		return fmt.Errorf("failed to create search index on %s.%s: %w", table, column, err)
	}
	return nil
}

// ExportParquet writes a table to a Parquet file with the given
// key/value metadata embedded in the file footer.
func (s *Store) ExportParquet(ctx context.Context, table, path, compression string, metadata map[string]string) error {
	quoted, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return err
	}

	options := []string{"FORMAT PARQUET"}
	if compression != "" && compression != "uncompressed" {
		options = append(options, "COMPRESSION "+compression)
	}
	if len(metadata) > 0 {
		options = append(options, "KV_METADATA "+buildKVMetadata(metadata))
	}

	query := fmt.Sprintf("COPY (SELECT * FROM %s) TO %s (%s)",
		quoted, sqlutil.QuoteLiteral(path), strings.Join(options, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to export %s to %s: %w", table, path, err)
	}
	return nil
}

// ExecScript runs a SQL script against the store.
func (s *Store) ExecScript(ctx context.Context, script string) error {
	if _, err := s.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed to execute script: %w", err)
	}
	return nil
}

// buildCreateTable renders a CREATE TABLE statement for a table's schema.
func buildCreateTable(table types.Table, ifNotExists bool) (string, error) {
	quoted, err := sqlutil.QuoteIdentifierSafe(table.Name)
	if err != nil {
		return "", err
	}
	if len(table.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", table.Name)
	}

	defs := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		colQuoted, err := sqlutil.QuoteIdentifierSafe(col.Name)
		if err != nil {
			return "", err
		}
		defs = append(defs, colQuoted+" "+col.Type.SQLType())
	}

	stmt := "CREATE TABLE "
	if ifNotExists {
		stmt = "CREATE TABLE IF NOT EXISTS "
	}
	return stmt + quoted + " (" + strings.Join(defs, ", ") + ")", nil
}

// insertRows bulk-inserts a table's rows using positional placeholders.
func insertRows(ctx context.Context, tx *sql.Tx, table types.Table) error {
	if len(table.Rows) == 0 {
		return nil
	}

	quoted, err := sqlutil.QuoteIdentifierSafe(table.Name)
	if err != nil {
		return err
	}

	cols := make([]string, 0, len(table.Columns))
	placeholders := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		colQuoted, err := sqlutil.QuoteIdentifierSafe(col.Name)
		if err != nil {
			return err
		}
		cols = append(cols, colQuoted)
		placeholders = append(placeholders, "?")
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", table.Name, err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf("row %d of %s has %d values, expected %d",
				i, table.Name, len(row), len(table.Columns))
		}
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = types.ToSQLValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table.Name, err)
		}
	}
	return nil
}

// escapeLikePattern escapes LIKE metacharacters so a prefix matches
// literally under ESCAPE '\'.
func escapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

// buildKVMetadata renders a DuckDB KV_METADATA map literal with keys in
// a stable order.
func buildKVMetadata(metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		// Keys must be quoted too: bare keys like column:topic do not parse.
		pairs = append(pairs, sqlutil.QuoteLiteral(k)+": "+sqlutil.QuoteLiteral(metadata[k]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
