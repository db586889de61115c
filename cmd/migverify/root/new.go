package root

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/cmd/migverify/shared"
)

var NewFlags struct {
	Name   *string
	Bare   *bool
	Create *bool
}

var newCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "new",
	Short: "generate the name of the next migration file based on the current version",
	Long: shared.CLIHelp(`
Every migration file needs an integer version in its name, and versions must
increase by exactly one with no gaps. The version is the first run of digits in
the file name, so a zero-padded prefix keeps the files sorted:

  0001_initial.sqm
  0002_create_users.sqm
  0003_another.sqm

This command prints the name of the next migration file: the most recent
version plus one, padded to the same width, followed by the name you give it.
The file goes next to the most recent migration, or in the first of your
source directories if there are no migrations yet.

If the version has reached its maximum width (all "9"'s) the command fails and
warns that the sequence has overflowed. Rename your migrations with a wider
prefix, or squash them and start from a new snapshot.
	`),
	Example: shared.CLIExample(`
# Just come up with the filename, don't create it
migverify new
# Use a specific name => "0002_my_example.sqm"
migverify new my_example
migverify new --name my_example
# Only print the file name, suitable for passing to other programs
migverify new --bare
# Create the migration file as well as printing its name
migverify new --create

# Create a new migration file and send it to another program
migverify new vim_user_example --create --bare | xargs vim
	`),
	GroupID:          "dev",
	TraverseChildren: true,
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 1 && *NewFlags.Name == "" {
			*NewFlags.Name = args[0]
		}
		shared.State.Parse()
		sources := shared.State.Sources()
		if err := shared.Validate(sources); err != nil {
			return err
		}
		slogger, _ := shared.State.Logger()
		registry, err := shared.SourceRegistry()
		if err != nil {
			return err
		}
		migrations, err := registry.Migrations()
		if err != nil {
			return err
		}

		filename, err := nextMigrationFilename(migrations, *NewFlags.Name, registry.MigrationExtension)
		if err != nil {
			return err
		}
		fp := nextMigrationPath(shared.List(sources), migrations, filename)
		if *NewFlags.Create {
			if err := os.WriteFile(fp, []byte(`-- write your migration here`), 0o660); err != nil { //nolint:gosec
				return err
			}
		}
		if *NewFlags.Bare {
			fmt.Println(fp)
		} else {
			slogger.Info("created", "name", migverify.NameFromFilename(filename), "path", fp)
		}
		return nil
	},
}

// nextMigrationPath places filename in the directory holding the last of
// migrations. Migration paths are relative to their source directory, so the
// first source directory containing that file wins.
func nextMigrationPath(sources []string, migrations []migverify.Migration, filename string) string {
	if len(migrations) != 0 {
		last := migrations[len(migrations)-1]
		for _, source := range sources {
			if _, err := os.Stat(filepath.Join(source, last.Path)); err == nil {
				return filepath.Join(source, filepath.Dir(last.Path), filename)
			}
		}
	}
	return filepath.Join(sources[0], filename)
}

// nextMigrationFilename returns the file name of the migration that follows
// the last of migrations, keeping the width of its version prefix.
func nextMigrationFilename(migrations []migverify.Migration, name, extension string) (string, error) {
	if len(migrations) == 0 {
		if name == "" {
			name = "initial"
		}
		return fmt.Sprintf("0001_%s%s", name, extension), nil
	}
	if name == "" {
		name = "generated"
	}
	last := migrations[len(migrations)-1]
	start := strings.IndexFunc(last.Name, unicode.IsDigit)
	if start == -1 {
		return "", fmt.Errorf("could not infer prefix from %s", last.Name)
	}
	digits := last.Name[start:]
	if end := strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) }); end != -1 {
		digits = digits[:end]
	}
	size := len(digits)
	prefix := strconv.Itoa(last.Version + 1)
	if len(prefix) > size {
		return "", fmt.Errorf(
			"sequence overflow: next prefix '%s' has more characters (%d) than the sequence allows (%d)",
			prefix, len(prefix), size,
		)
	}
	prefix = strings.Repeat("0", size-len(prefix)) + prefix
	return fmt.Sprintf("%s_%s%s", prefix, name, extension), nil
}

func init() {
	NewFlags.Bare = newCmd.Flags().BoolP("bare", "b", false, "if true, only print the created migration file path")
	NewFlags.Create = newCmd.Flags().BoolP("create", "c", false, "if true, create the migration file")
	NewFlags.Name = newCmd.Flags().StringP("name", "n", "", "the name of the new migration (default 'generated')")
}
