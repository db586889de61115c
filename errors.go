package migverify

import (
	"errors"
	"fmt"
)

// ErrNoSnapshot is returned by [Verifier.Verify] when snapshots are required
// but none were found.
var ErrNoSnapshot = errors.New(
	"Verifying a migration requires a database file to be present. To generate one, use the generate task.",
)

// InvalidMigrationNameError is returned when a migration or snapshot file name
// does not contain the integer version it is required to have.
type InvalidMigrationNameError struct {
	Name string
}

func (e *InvalidMigrationNameError) Error() string {
	return fmt.Sprintf(
		"Migration files must have an integer value somewhere in their filename but %s does not.",
		e.Name,
	)
}

// MigrationMismatchError is returned when replaying migrations against a
// snapshot produces a schema that differs from the golden schema.
type MigrationMismatchError struct {
	Snapshot string // the snapshot file name
	Diff     string // the rendered difference report
}

func (e *MigrationMismatchError) Error() string {
	return fmt.Sprintf(
		"Error migrating from %s, fresh database looks different from migration database:\n%s",
		e.Snapshot, e.Diff,
	)
}

// MigrationGapError is returned when the migration versions, in ascending
// order, do not increase by exactly one.
type MigrationGapError struct {
	Expected int
	Actual   int
}

func (e *MigrationGapError) Error() string {
	return fmt.Sprintf("Gap in migrations detected. Expected migration %d, got %d.", e.Expected, e.Actual)
}

// StatementExecutionError is returned by an [Engine] when a statement fails to
// execute. It wraps the driver's error.
type StatementExecutionError struct {
	Statement Statement
	Err       error
}

func (e *StatementExecutionError) Error() string {
	return fmt.Sprintf("error compiling %s: %s\n%s", e.Statement.Origin, e.Err, e.Statement.SQL)
}

func (e *StatementExecutionError) Unwrap() error {
	return e.Err
}
