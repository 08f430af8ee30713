// Package types contains shared relational types used across multiple
// packages to avoid import cycles.
package types

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
)

// ColumnType identifies the storage type of a table column.
type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
)

// SQLType returns the DuckDB column type for this ColumnType.
func (t ColumnType) SQLType() string {
	switch t {
	case TypeInteger:
		return "BIGINT"
	case TypeFloat:
		return "DOUBLE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

// Column describes a single column of a named table. The description is
// carried through to exported artifacts as embedded metadata.
type Column struct {
	Name        string
	Type        ColumnType
	Description string
}

// Table is the unit of output from a normalizer: a named, ordered set of
// columns and the rows beneath them. Row values are positional and aligned
// with Columns.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// RowCount returns the number of rows in the table.
func (t Table) RowCount() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// TableBuilder assembles a Table with a stable column order. Columns keep
// their declaration order regardless of the order row values are supplied,
// which keeps normalization output deterministic across runs.
type TableBuilder struct {
	name    string
	columns *orderedmap.OrderedMap[string, Column]
	rows    [][]any
}

// NewTableBuilder creates a builder for the named table with the given
// column declarations.
func NewTableBuilder(name string, columns ...Column) *TableBuilder {
	b := &TableBuilder{
		name:    name,
		columns: orderedmap.NewOrderedMap[string, Column](),
	}
	for _, col := range columns {
		b.columns.Set(col.Name, col)
	}
	return b
}

// AppendRow adds a row from a column-name keyed value map. Columns absent
// from the map are stored as nil. Values for undeclared columns are an
// error: the fixed column set is part of the normalizer contract.
func (b *TableBuilder) AppendRow(values map[string]any) error {
	for key := range values {
		if _, ok := b.columns.Get(key); !ok {
			return fmt.Errorf("table %s has no column %q", b.name, key)
		}
	}

	row := make([]any, 0, b.columns.Len())
	for el := b.columns.Front(); el != nil; el = el.Next() {
		row = append(row, values[el.Key])
	}
	b.rows = append(b.rows, row)
	return nil
}

// Len returns the number of rows appended so far.
func (b *TableBuilder) Len() int {
	return len(b.rows)
}

// Build finalizes the table. The builder can keep accepting rows afterwards;
// the returned Table owns its own row slice header.
func (b *TableBuilder) Build() Table {
	columns := make([]Column, 0, b.columns.Len())
	for el := b.columns.Front(); el != nil; el = el.Next() {
		columns = append(columns, el.Value)
	}
	rows := b.rows
	if rows == nil {
		rows = [][]any{}
	}
	return Table{
		Name:    b.name,
		Columns: columns,
		Rows:    rows,
	}
}
