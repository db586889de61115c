package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/cmd/migverify/shared"
)

var DumpFlags struct {
	Out *string
}

var dumpCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "dump",
	Short: "Print the golden schema built from the definition files",
	Long: shared.CLIHelp(`
Builds a fresh database from the definition files (*.sq) in your sources and
prints the schema that verification compares against, as YAML. This is useful
for understanding a "fresh database looks different" failure: dump the golden
schema and compare it with the tables your migrations produce.
	`),
	Example: shared.CLIExample(`
# Print the golden schema
migverify dump --sources ./schema
# Write it to a file
migverify dump --sources ./schema --out golden.yaml
	`),
	GroupID:          "dev",
	TraverseChildren: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && *DumpFlags.Out == "" {
			*DumpFlags.Out = args[0]
		}
		shared.State.Parse()
		_, mlogger := shared.State.Logger()
		dialect, err := shared.OpenDialect()
		if err != nil {
			return err
		}
		registry, err := shared.Registry(dialect)
		if err != nil {
			return err
		}
		files, err := registry.Definitions()
		if err != nil {
			return err
		}

		builder := migverify.NewBuilder(dialect.Engine)
		builder.Logger = mlogger
		golden, err := builder.FromDefinitions(cmd.Context(), files, dialect.AllowsReferenceCycles)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(golden)
		if err != nil {
			return fmt.Errorf("marshal catalog: %w", err)
		}
		if *DumpFlags.Out == "" || *DumpFlags.Out == "-" {
			_, err = os.Stdout.Write(out)
			return err
		}
		return os.WriteFile(*DumpFlags.Out, out, 0o644) //nolint:gosec
	},
}

func init() {
	DumpFlags.Out = dumpCmd.Flags().StringP("out", "o", "-", "path to the file where the schema should be written, '-' for stdout")
}
