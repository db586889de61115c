package pgtools

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorData returns the structured fields of a postgres error, keyed for
// logging. Errors that did not come from the server return an empty map.
func ErrorData(err error) map[string]any {
	data := make(map[string]any)
	var perr *pgconn.PgError
	if !errors.As(err, &perr) {
		return data
	}
	data["pg_code"] = perr.Code
	if perr.Severity != "" {
		data["pg_severity"] = perr.Severity
	}
	if perr.Detail != "" {
		data["pg_detail"] = perr.Detail
	}
	if perr.Hint != "" {
		data["pg_hint"] = perr.Hint
	}
	if perr.Position != 0 {
		data["pg_position"] = perr.Position
	}
	if perr.SchemaName != "" {
		data["pg_schema"] = perr.SchemaName
	}
	if perr.TableName != "" {
		data["pg_table"] = perr.TableName
	}
	if perr.ColumnName != "" {
		data["pg_column"] = perr.ColumnName
	}
	if perr.ConstraintName != "" {
		data["pg_constraint"] = perr.ConstraintName
	}
	if perr.Where != "" {
		data["pg_where"] = perr.Where
	}
	return data
}
