package migverify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	check.Equal(t,
		"Error migrating from 3.db, fresh database looks different from migration database:\nTables[\"cats\"]:\n  golden: ...\n  actual: <missing>",
		(&MigrationMismatchError{Snapshot: "3.db", Diff: "Tables[\"cats\"]:\n  golden: ...\n  actual: <missing>"}).Error(),
	)
	check.Equal(t,
		"Gap in migrations detected. Expected migration 3, got 4.",
		(&MigrationGapError{Expected: 3, Actual: 4}).Error(),
	)
	check.Equal(t,
		"Verifying a migration requires a database file to be present. To generate one, use the generate task.",
		ErrNoSnapshot.Error(),
	)
}

func TestStatementExecutionErrorUnwraps(t *testing.T) {
	t.Parallel()
	cause := errors.New("no such table: cats")
	err := fmt.Errorf("build: %w", &StatementExecutionError{
		Statement: Statement{SQL: "INSERT INTO cats VALUES (1)", Origin: "0002_cats.sqm"},
		Err:       cause,
	})
	check.True(t, errors.Is(err, cause))
	var serr *StatementExecutionError
	check.True(t, errors.As(err, &serr))
	check.Equal(t, "error compiling 0002_cats.sqm: no such table: cats\nINSERT INTO cats VALUES (1)", serr.Error())
}
