package root

import (
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/spf13/cobra"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/cmd/migverify/shared"
)

var squashCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "squash",
	Short: "Write every migration as a standalone SQL file",
	Long: shared.CLIHelp(`
Writes one file per migration into the output directory, named after the
migration file with the squash extension, for example "0002_add_col.sql". Each
file contains the migration's statements, each terminated by ";" and separated
by a blank line.

The output directory is created if it does not exist. Files already in it are
deleted first, so don't point it at a directory you care about. Subdirectories
are only deleted if they are empty.
	`),
	Example: shared.CLIExample(`
# Export migrations for a tool that reads plain *.sql files
migverify squash --sources ./schema --out ./build/migrations
# Use a different extension
migverify squash --out ./build/migrations --extension .up.sql
	`),
	GroupID:          "verifying",
	TraverseChildren: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && *shared.State.Flags.SquashOut == "" {
			*shared.State.Flags.SquashOut = args[0]
		}
		shared.State.Parse()
		out := shared.State.SquashOut()
		if err := shared.Validate(out); err != nil {
			return err
		}
		slogger, mlogger := shared.State.Logger()
		registry, err := shared.SourceRegistry()
		if err != nil {
			return err
		}
		migrations, err := registry.Migrations()
		if err != nil {
			return err
		}

		squasher := migverify.NewSquasher(osfs.New())
		squasher.Logger = mlogger
		if err := squasher.Squash(cmd.Context(), migrations, out.Value(), shared.State.SquashExtension().Value()); err != nil {
			return err
		}
		slogger.Info("squashed", "count", len(migrations), "out", out.Value())
		return nil
	},
}

func init() {
	shared.State.Flags.SquashOut = squashCmd.Flags().StringP(
		"out",
		"o",
		"",
		"[MIGV_SQUASH_OUT] the directory to write squashed migrations to",
	)
	shared.State.Flags.SquashExtension = squashCmd.Flags().StringP(
		"extension",
		"e",
		"",
		"[MIGV_SQUASH_EXTENSION] the extension of the squashed files (default '.sql')",
	)
	_ = squashCmd.MarkFlagDirname("out")
}
