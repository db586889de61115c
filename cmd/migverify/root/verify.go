package root

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/cmd/migverify/shared"
	"github.com/peterldowns/migverify/internal/pgtools"
)

var VerifyFlags struct {
	Marker *string
}

var verifyCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "verify",
	Short: "Verify that migrations reproduce the current schema from every snapshot",
	Long: shared.CLIHelp(`
Builds the "golden" schema from the definition files (*.sq) in your sources, then
for every snapshot file (<version>.db, or <version>.sql for postgres) replays the
migrations (*.sqm) with a higher version against a copy of the snapshot and
compares the result to the golden schema.

Verification fails if:
- any migration file name has no integer version in it
- there are no snapshots, unless "--require-snapshots=false"
- any statement fails to execute
- any replayed schema differs from the golden schema
- the migration versions have a gap, like 1, 2, 4

The first failure is reported and the command exits with status code 1.
Otherwise it exits with status code 0. Snapshot files are never modified; they
are copied into the working directory, which is cleared on every run.
	`),
	Example: shared.CLIExample(`
# Verify the sqlite migrations in ./schema
migverify verify --sources ./schema
# Verify postgres migrations against *.sql schema dumps
migverify verify --dialect postgres --database $SERVER_URL --sources ./schema
# Touch a marker file on success, for build systems
migverify verify --marker ./build/migrations.verified
	`),
	GroupID:          "verifying",
	TraverseChildren: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shared.State.Parse()
		slogger, mlogger := shared.State.Logger()
		requireSnapshots, err := shared.Bool(shared.State.RequireSnapshots())
		if err != nil {
			return err
		}
		dialect, err := shared.OpenDialect()
		if err != nil {
			return err
		}
		registry, err := shared.Registry(dialect)
		if err != nil {
			return err
		}

		verifier := migverify.NewVerifier(dialect)
		verifier.Logger = mlogger
		verifier.RequireSnapshots = requireSnapshots
		verifier.WorkingDirectory = shared.State.WorkingDirectory().Value()
		if err := verifier.Verify(cmd.Context(), registry); err != nil {
			var serr *migverify.StatementExecutionError
			if errors.As(err, &serr) {
				var attrs []any
				for key, val := range pgtools.ErrorData(serr.Err) {
					attrs = append(attrs, key, val)
				}
				if len(attrs) != 0 {
					slogger.With(attrs...).Error("statement failed", "origin", serr.Statement.Origin)
				}
			}
			return err
		}

		if marker := *VerifyFlags.Marker; marker != "" {
			if err := os.WriteFile(marker, nil, 0o644); err != nil { //nolint:gosec
				return err
			}
		}
		slogger.Info("verified")
		return nil
	},
}

func init() {
	shared.State.Flags.RequireSnapshots = verifyCmd.Flags().String(
		"require-snapshots",
		"",
		"[MIGV_REQUIRE_SNAPSHOTS] if true, fail when there are no snapshot files (default 'true')",
	)
	VerifyFlags.Marker = verifyCmd.Flags().StringP("marker", "m", "", "if set, create this empty file when verification succeeds")
}
