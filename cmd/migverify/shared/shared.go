package shared

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/logging"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type Flags struct {
	LogFormat        *string // see root.go
	Verbose          *bool   // see root.go
	ConfigFile       *string // see root.go
	Dialect          *string // see root.go
	Database         *string // see root.go
	Sources          *string // see root.go
	WorkingDirectory *string // see root.go
	RequireSnapshots *string // see verify.go
	SquashOut        *string // see squash.go
	SquashExtension  *string // see squash.go
}

type SquashConfig struct {
	Out       string `yaml:"out"`
	Extension string `yaml:"extension"`
}

type ExtensionsConfig struct {
	Definitions string `yaml:"definitions"`
	Migrations  string `yaml:"migrations"`
	Snapshots   string `yaml:"snapshots"`
}

type Config struct {
	Dialect          string           `yaml:"dialect"`
	Database         string           `yaml:"database"`
	Sources          []string         `yaml:"sources"`
	WorkingDirectory string           `yaml:"working_directory"`
	RequireSnapshots string           `yaml:"require_snapshots"`
	LogFormat        logging.Format   `yaml:"log_format"`
	Squash           SquashConfig     `yaml:"squash"`
	Extensions       ExtensionsConfig `yaml:"extensions"`
}

type StateT struct {
	Flags  Flags
	Config Config
}

var State StateT //nolint:gochecknoglobals

// Parse reads the configuration file, if there is one. Values from the file
// have a lower precedence than flags and environment variables.
func (state *StateT) Parse() {
	cf := state.Configfile()
	if !cf.IsSet() {
		return
	}
	file, err := os.Open(cf.Value())
	if err != nil {
		panic(fmt.Errorf("open config: %w", err))
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		panic(fmt.Errorf("read config: %w", err))
	}
	if err := yaml.Unmarshal(contents, &state.Config); err != nil {
		panic(fmt.Errorf("parse config: %w", err))
	}
}

func (state StateT) Configfile() Variable[string] {
	return NewVariable(
		"configfile",
		*state.Flags.ConfigFile,
		os.Getenv("MIGV_CONFIGFILE"),
		CheckPath(".migverify.yaml"), // in cwd
		RepoPath(".migverify.yaml"),  // in repo root
		"",                           // default to missing
	)
}

func (state StateT) Dialect() Variable[string] {
	return NewVariable(
		"dialect",
		*state.Flags.Dialect,
		os.Getenv("MIGV_DIALECT"),
		state.Config.Dialect,
		DialectSQLite, // default
	)
}

func (state StateT) Database() Variable[string] {
	return NewVariable(
		"database",
		*state.Flags.Database,
		os.Getenv("MIGV_DATABASE"),
		state.Config.Database,
		"", // default to missing
	)
}

// Sources is a comma-separated list of folders.
func (state StateT) Sources() Variable[string] {
	return NewVariable(
		"sources",
		*state.Flags.Sources,
		os.Getenv("MIGV_SOURCES"),
		strings.Join(state.Config.Sources, ","),
		"", // default to missing
	)
}

func (state StateT) WorkingDirectory() Variable[string] {
	return NewVariable(
		"working-directory",
		*state.Flags.WorkingDirectory,
		os.Getenv("MIGV_WORKING_DIRECTORY"),
		state.Config.WorkingDirectory,
		filepath.Join(os.TempDir(), "migverify"), // default
	)
}

func (state StateT) RequireSnapshots() Variable[string] {
	return NewVariable(
		"require-snapshots",
		*state.Flags.RequireSnapshots,
		os.Getenv("MIGV_REQUIRE_SNAPSHOTS"),
		state.Config.RequireSnapshots,
		"true", // default
	)
}

func (state StateT) LogFormat() Variable[logging.Format] {
	return NewVariable(
		"log-format",
		logging.Format(*state.Flags.LogFormat),
		logging.Format(os.Getenv("MIGV_LOG_FORMAT")),
		state.Config.LogFormat,
		logging.FormatText, // default
	)
}

func (state StateT) SquashOut() Variable[string] {
	return NewVariable(
		"out",
		*state.Flags.SquashOut,
		os.Getenv("MIGV_SQUASH_OUT"),
		state.Config.Squash.Out,
		"", // default to missing
	)
}

func (state StateT) SquashExtension() Variable[string] {
	return NewVariable(
		"extension",
		*state.Flags.SquashExtension,
		os.Getenv("MIGV_SQUASH_EXTENSION"),
		state.Config.Squash.Extension,
		".sql", // default
	)
}

func (state StateT) DefinitionExtension() Variable[string] {
	return NewVariable(
		"extensions.definitions",
		os.Getenv("MIGV_DEFINITION_EXTENSION"),
		state.Config.Extensions.Definitions,
		migverify.DefaultDefinitionExtension, // default
	)
}

func (state StateT) MigrationExtension() Variable[string] {
	return NewVariable(
		"extensions.migrations",
		os.Getenv("MIGV_MIGRATION_EXTENSION"),
		state.Config.Extensions.Migrations,
		migverify.DefaultMigrationExtension, // default
	)
}

// SnapshotExtension defaults to the dialect's snapshot extension.
func (state StateT) SnapshotExtension(dialect migverify.Dialect) Variable[string] {
	return NewVariable(
		"extensions.snapshots",
		os.Getenv("MIGV_SNAPSHOT_EXTENSION"),
		state.Config.Extensions.Snapshots,
		dialect.SnapshotExtension, // default
	)
}

func (state StateT) Logger() (*log.Logger, logging.CharmAdapter) {
	level := log.InfoLevel
	if state.Flags.Verbose != nil && *state.Flags.Verbose {
		level = log.DebugLevel
	}
	logger, err := logging.New(os.Stderr, state.LogFormat().Value(), level)
	if err != nil {
		panic(err)
	}
	return logger, logging.NewCharmAdapter(logger)
}

func RepoPath(p string) string {
	root, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return ""
	}
	rootConfig := path.Join(strings.TrimSpace(string(root)), p)
	return CheckPath(rootConfig)
}

func CheckPath(p string) string {
	p, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
