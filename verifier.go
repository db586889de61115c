package migverify

import (
	"context"
	"fmt"
	"os"

	"github.com/peterldowns/migverify/catalog"
)

// Verifier should be instantiated with [NewVerifier] rather than used directly.
// It checks that replaying migrations against every historical snapshot
// produces exactly the schema described by the current definitions.
type Verifier struct {
	Dialect Dialect
	// Comparator diffs the golden catalog against each replayed catalog.
	//
	// [NewVerifier] defaults it to a comparator that reports circular foreign
	// key references to Logger at the debug level.
	Comparator *catalog.Comparator
	// Logger is used by the Verifier to log messages as it operates.
	//
	// [NewVerifier] defaults it to `nil`, which will prevent any messages from
	// being logged.
	Logger Logger
	// WorkingDirectory is cleared at the start of every verification and holds
	// the scratch copies of snapshots.
	//
	// [NewVerifier] defaults it to "", in which case every replay uses its own
	// temporary directory.
	WorkingDirectory string
	// RequireSnapshots makes verification fail with [ErrNoSnapshot] if there
	// are no snapshot files.
	//
	// [NewVerifier] defaults it to `true`.
	RequireSnapshots bool
}

// NewVerifier creates a [Verifier] for the given dialect and sets appropriate
// default values for all configurable fields. To configure these fields, just
// set the values on the struct.
func NewVerifier(dialect Dialect) *Verifier {
	v := &Verifier{
		Dialect:          dialect,
		RequireSnapshots: true,
	}
	v.Comparator = catalog.NewComparator()
	v.Comparator.CircularReferenceLogger = func(msg string) {
		v.debug(context.Background(), msg)
	}
	return v
}

// Verify runs a full verification of the files in registry:
//
//   - Every migration, snapshot, and definition file is loaded. Invalid
//     migration names fail before any database is built.
//   - If snapshots are required and there are none, verification fails with
//     [ErrNoSnapshot].
//   - The golden catalog is built once from the definitions.
//   - For each snapshot, in the order in which it was found, the migrations
//     after its version are replayed against a copy of it and the result is
//     compared to the golden catalog. The first difference fails verification
//     with a [*MigrationMismatchError].
//   - Finally, the migration versions are checked for gaps.
//
// The first error stops verification and is returned.
func (v *Verifier) Verify(ctx context.Context, registry *Registry) error {
	if err := v.resetWorkingDirectory(); err != nil {
		return err
	}
	migrations, err := registry.Migrations()
	if err != nil {
		return err
	}
	snapshots, err := registry.Snapshots()
	if err != nil {
		return err
	}
	definitions, err := registry.Definitions()
	if err != nil {
		return err
	}
	v.info(ctx, "loaded",
		LogField{Key: "migrations", Value: len(migrations)},
		LogField{Key: "snapshots", Value: len(snapshots)},
		LogField{Key: "definition_files", Value: len(definitions)},
	)
	if v.RequireSnapshots && len(snapshots) == 0 {
		return ErrNoSnapshot
	}

	builder := v.builder()
	golden, err := builder.FromDefinitions(ctx, definitions, v.Dialect.AllowsReferenceCycles)
	if err != nil {
		return fmt.Errorf("build golden schema: %w", err)
	}
	comparator := v.Comparator
	if comparator == nil {
		comparator = catalog.NewComparator()
	}
	for _, snapshot := range snapshots {
		actual, err := builder.FromMigrations(ctx, migrations, snapshot)
		if err != nil {
			return fmt.Errorf("replay migrations onto %s: %w", snapshot.Name, err)
		}
		report := comparator.Compare(golden, actual)
		if !report.Empty() {
			v.error(ctx, "schema mismatch",
				LogField{Key: "snapshot", Value: snapshot.Name},
				LogField{Key: "differences", Value: len(report.Entries)},
			)
			return &MigrationMismatchError{Snapshot: snapshot.Name, Diff: report.String()}
		}
		v.info(ctx, "verified", LogField{Key: "snapshot", Value: snapshot.Name})
	}
	return CheckContiguous(migrations)
}

func (v *Verifier) builder() *Builder {
	return &Builder{
		Engine:           v.Dialect.Engine,
		WorkingDirectory: v.WorkingDirectory,
		Logger:           v.Logger,
	}
}

func (v *Verifier) resetWorkingDirectory() error {
	if v.WorkingDirectory == "" {
		return nil
	}
	if err := os.RemoveAll(v.WorkingDirectory); err != nil {
		return fmt.Errorf("clear working directory: %w", err)
	}
	if err := os.MkdirAll(v.WorkingDirectory, 0o755); err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	return nil
}

func (v *Verifier) info(ctx context.Context, msg string, fields ...LogField) {
	if hl, ok := v.Logger.(Helper); ok {
		hl.Helper()
	}
	logTo(ctx, v.Logger, LogLevelInfo, msg, fields...)
}

func (v *Verifier) debug(ctx context.Context, msg string, fields ...LogField) {
	if hl, ok := v.Logger.(Helper); ok {
		hl.Helper()
	}
	logTo(ctx, v.Logger, LogLevelDebug, msg, fields...)
}

func (v *Verifier) error(ctx context.Context, msg string, fields ...LogField) {
	if hl, ok := v.Logger.(Helper); ok {
		hl.Helper()
	}
	logTo(ctx, v.Logger, LogLevelError, msg, fields...)
}
