package sqlutil

import (
	"database/sql"
)

// ToSqlInt32 converts an optional int to sql.NullInt32
func ToSqlInt32(val *int) sql.NullInt32 {
	if val == nil {
		return sql.NullInt32{Valid: false}
	}
	return sql.NullInt32{Int32: int32(*val), Valid: true}
}

// FromSqlInt32 converts sql.NullInt32 back to an optional int
func FromSqlInt32(val sql.NullInt32) *int {
	if !val.Valid {
		return nil
	}
	result := int(val.Int32)
	return &result
}

// ToSqlFloat64 converts an optional float64 to sql.NullFloat64
func ToSqlFloat64(val *float64) sql.NullFloat64 {
	if val == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *val, Valid: true}
}

// FromSqlFloat64 converts sql.NullFloat64 back to an optional float64
func FromSqlFloat64(val sql.NullFloat64) *float64 {
	if !val.Valid {
		return nil
	}
	result := val.Float64
	return &result
}
