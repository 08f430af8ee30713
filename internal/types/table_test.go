package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnTypeSQLType(t *testing.T) {
	tests := []struct {
		name     string
		colType  ColumnType
		expected string
	}{
		{name: "text", colType: TypeText, expected: "VARCHAR"},
		{name: "integer", colType: TypeInteger, expected: "BIGINT"},
		{name: "float", colType: TypeFloat, expected: "DOUBLE"},
		{name: "boolean", colType: TypeBoolean, expected: "BOOLEAN"},
		{name: "timestamp", colType: TypeTimestamp, expected: "TIMESTAMP"},
		{name: "unknown falls back to varchar", colType: ColumnType("blob"), expected: "VARCHAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.colType.SQLType())
		})
	}
}

func TestTableBuilderColumnOrder(t *testing.T) {
	b := NewTableBuilder("base_things",
		Column{Name: "id", Type: TypeText},
		Column{Name: "parent_id", Type: TypeText},
		Column{Name: "size", Type: TypeInteger},
	)

	// Supply row values in a different order than the declaration.
	err := b.AppendRow(map[string]any{"size": int64(4), "id": "a", "parent_id": "p"})
	assert.NoError(t, err)

	table := b.Build()
	assert.Equal(t, []string{"id", "parent_id", "size"}, table.ColumnNames())
	assert.Equal(t, []any{"a", "p", int64(4)}, table.Rows[0])
}

func TestTableBuilderMissingColumnsBecomeNil(t *testing.T) {
	b := NewTableBuilder("base_things",
		Column{Name: "id", Type: TypeText},
		Column{Name: "note", Type: TypeText},
	)

	err := b.AppendRow(map[string]any{"id": "a"})
	assert.NoError(t, err)

	table := b.Build()
	assert.Equal(t, []any{"a", nil}, table.Rows[0])
}

func TestTableBuilderRejectsUndeclaredColumn(t *testing.T) {
	b := NewTableBuilder("base_things", Column{Name: "id", Type: TypeText})

	err := b.AppendRow(map[string]any{"id": "a", "bogus": 1})
	assert.Error(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestTableBuilderEmptyTable(t *testing.T) {
	table := NewTableBuilder("base_empty", Column{Name: "id", Type: TypeText}).Build()

	assert.Equal(t, 0, table.RowCount())
	assert.NotNil(t, table.Rows)
}

func TestTableColumnIndex(t *testing.T) {
	table := NewTableBuilder("base_things",
		Column{Name: "id", Type: TypeText},
		Column{Name: "name", Type: TypeText},
	).Build()

	assert.Equal(t, 1, table.ColumnIndex("name"))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
}

