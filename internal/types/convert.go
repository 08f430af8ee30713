package types

import (
	"database/sql"
	"time"
)

// ToSQLValue maps a normalized row value to a driver friendly value.
// nil maps to a typed NULL so that prepared statements bind cleanly, and
// timestamps are normalized to UTC before binding.
func ToSQLValue(v any) any {
	switch value := v.(type) {
	case nil:
		return sql.NullString{}
	case time.Time:
		return value.UTC()
	case *time.Time:
		if value == nil {
			return sql.NullTime{}
		}
		return value.UTC()
	case *string:
		if value == nil {
			return sql.NullString{}
		}
		return *value
	case *int64:
		if value == nil {
			return sql.NullInt64{}
		}
		return *value
	case *bool:
		if value == nil {
			return sql.NullBool{}
		}
		return *value
	default:
		return value
	}
}
