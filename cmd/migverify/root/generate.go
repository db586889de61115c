package root

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/cmd/migverify/shared"
)

var GenerateFlags struct {
	Version *int
	Out     *string
}

var generateCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "generate",
	Short: "Write a snapshot of the current schema",
	Long: shared.CLIHelp(`
Builds a new database from the definition files (*.sq) in your sources and
saves it as a snapshot named "<version><snapshot extension>", for example
"3.db". A snapshot for version N holds the schema after migration N, so when
"verify" runs it replays only the migrations after N on top of it.

The version defaults to the version of the most recent migration, or 0 if
there are no migrations. Generate a snapshot whenever you release a version of
your schema, and check it in next to your migrations.

The snapshot goes in the first of your source directories unless you pass
"--out". An existing snapshot is never overwritten.

Only the sqlite dialect can write snapshots. For postgres, apply your schema to
a database and write the snapshot with "pg_dump --schema-only".
	`),
	Example: shared.CLIExample(`
# Snapshot the current schema as of the latest migration
migverify generate --sources ./schema
# Snapshot it under an explicit version, in another directory
migverify generate --sources ./schema --version 12 --out ./schema/databases
# postgres snapshots come from pg_dump
pg_dump --schema-only $DATABASE_URL > ./schema/12.sql
	`),
	GroupID:          "verifying",
	TraverseChildren: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shared.State.Parse()
		sources := shared.State.Sources()
		if err := shared.Validate(sources); err != nil {
			return err
		}
		slogger, mlogger := shared.State.Logger()
		dialect, err := shared.OpenDialect()
		if err != nil {
			return err
		}
		if !dialect.WritesSnapshots {
			return fmt.Errorf(`the %s dialect can't write snapshots, use "pg_dump --schema-only" instead`, dialect.Name)
		}
		registry, err := shared.Registry(dialect)
		if err != nil {
			return err
		}
		migrations, err := registry.Migrations()
		if err != nil {
			return err
		}
		files, err := registry.Definitions()
		if err != nil {
			return err
		}

		version := snapshotVersion(migrations, *GenerateFlags.Version)
		dir := *GenerateFlags.Out
		if dir == "" {
			dir = shared.List(sources)[0]
		}
		path := filepath.Join(dir, strconv.Itoa(version)+registry.SnapshotExtension)

		builder := migverify.NewBuilder(dialect.Engine)
		builder.Logger = mlogger
		if err := builder.WriteSnapshot(cmd.Context(), files, dialect.AllowsReferenceCycles, path); err != nil {
			return err
		}
		slogger.Info("generated", "version", version, "path", path)
		return nil
	},
}

// snapshotVersion returns requested, or the version of the last migration if
// requested is negative.
func snapshotVersion(migrations []migverify.Migration, requested int) int {
	if requested >= 0 {
		return requested
	}
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

func init() {
	GenerateFlags.Version = generateCmd.Flags().IntP("version", "V", -1, "the version of the snapshot (default: the latest migration's version)")
	GenerateFlags.Out = generateCmd.Flags().StringP("out", "o", "", "the directory to write the snapshot to (default: the first source directory)")
	_ = generateCmd.MarkFlagDirname("out")
}
