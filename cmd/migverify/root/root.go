package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peterldowns/migverify/cmd/migverify/shared"
	"github.com/peterldowns/migverify/logging"
)

var Command = &cobra.Command{ //nolint:gochecknoglobals
	Version: shared.VersionString(),
	Use:     "migverify",
	Short:   "verify migrations against database snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf(`invalid command: "%s"`, args[0])
		}
		return cmd.Help()
	},
}

func init() { //nolint:gochecknoinits
	Command.CompletionOptions.HiddenDefaultCmd = true
	Command.TraverseChildren = true
	Command.SilenceErrors = true
	Command.SilenceUsage = true
	Command.SetVersionTemplate("{{.Version}}\n")

	shared.State.Flags.LogFormat = Command.PersistentFlags().StringP(
		"log-format",
		"l",
		"",
		fmt.Sprintf("[MIGV_LOG_FORMAT] '%s' or '%s', the log line format (default '%s')", logging.FormatText, logging.FormatJSON, logging.FormatText),
	)
	shared.State.Flags.Verbose = Command.PersistentFlags().BoolP(
		"verbose",
		"v",
		false,
		"if true, log debug messages",
	)
	shared.State.Flags.ConfigFile = Command.PersistentFlags().StringP(
		"configfile",
		"f",
		"",
		"[MIGV_CONFIGFILE] a path to a configuration file",
	)
	shared.State.Flags.Dialect = Command.PersistentFlags().StringP(
		"dialect",
		"D",
		"",
		fmt.Sprintf("[MIGV_DIALECT] '%s' or '%s' (default '%s')", shared.DialectSQLite, shared.DialectPostgres, shared.DialectSQLite),
	)
	shared.State.Flags.Database = Command.PersistentFlags().StringP(
		"database",
		"d",
		"",
		"[MIGV_DATABASE] a 'postgres://...' server connection string, required by the postgres dialect",
	)
	shared.State.Flags.Sources = Command.PersistentFlags().StringP(
		"sources",
		"s",
		"",
		"[MIGV_SOURCES] comma-separated directories containing definition, migration, and snapshot files",
	)
	shared.State.Flags.WorkingDirectory = Command.PersistentFlags().StringP(
		"working-directory",
		"w",
		"",
		"[MIGV_WORKING_DIRECTORY] a scratch directory for snapshot copies, cleared on every run",
	)
	_ = Command.MarkPersistentFlagDirname("working-directory")

	Command.AddGroup(
		&cobra.Group{
			ID:    "verifying",
			Title: "Verifying:",
		},
		&cobra.Group{
			ID:    "dev",
			Title: "Development:",
		},
	)

	// verifying
	Command.AddCommand(verifyCmd)
	Command.AddCommand(squashCmd)
	Command.AddCommand(generateCmd)

	// dev
	Command.AddCommand(newCmd)
	Command.AddCommand(dumpCmd)
	Command.AddCommand(configCmd)
	Command.AddCommand(versionCmd)
	Command.SetHelpCommandGroupID("dev")
}
