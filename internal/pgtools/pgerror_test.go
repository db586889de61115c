package pgtools_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/peterldowns/testy/check"

	"github.com/peterldowns/migverify/internal/pgtools"
)

func TestErrorDataFromWrappedPgError(t *testing.T) {
	t.Parallel()
	perr := &pgconn.PgError{
		Severity:  "ERROR",
		Code:      "42P01",
		Message:   `relation "cats" does not exist`,
		Position:  15,
		TableName: "cats",
	}
	data := pgtools.ErrorData(fmt.Errorf("exec: %w", perr))
	check.Equal(t, map[string]any{
		"pg_code":     "42P01",
		"pg_severity": "ERROR",
		"pg_position": int32(15),
		"pg_table":    "cats",
	}, data)
}

func TestErrorDataIgnoresOtherErrors(t *testing.T) {
	t.Parallel()
	check.Equal(t, map[string]any{}, pgtools.ErrorData(errors.New("boom")))
}
