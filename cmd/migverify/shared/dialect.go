package shared

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/dialect/postgres"
	"github.com/peterldowns/migverify/dialect/sqlite"
)

// OpenDialect returns the configured dialect. The postgres dialect requires a
// database url.
func OpenDialect() (migverify.Dialect, error) {
	switch name := State.Dialect().Value(); name {
	case DialectSQLite:
		return sqlite.Dialect(), nil
	case DialectPostgres:
		dbVar := State.Database()
		if err := Validate(dbVar); err != nil {
			return migverify.Dialect{}, err
		}
		server, err := setDefaultStatementCachingParameter(dbVar.Value())
		if err != nil {
			return migverify.Dialect{}, err
		}
		return postgres.Dialect(server), nil
	default:
		return migverify.Dialect{}, fmt.Errorf("unknown dialect: %s", name)
	}
}

// Folders returns the configured source folders.
func Folders() ([]fs.FS, error) {
	sources := State.Sources()
	if err := Validate(sources); err != nil {
		return nil, err
	}
	var folders []fs.FS
	for _, dir := range List(sources) {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s: not a directory", dir)
		}
		folders = append(folders, os.DirFS(dir))
	}
	return folders, nil
}

// SourceRegistry returns a registry over the configured source folders using
// the configured definition and migration extensions.
func SourceRegistry() (*migverify.Registry, error) {
	folders, err := Folders()
	if err != nil {
		return nil, err
	}
	registry := migverify.NewRegistry(folders...)
	registry.DefinitionExtension = State.DefinitionExtension().Value()
	registry.MigrationExtension = State.MigrationExtension().Value()
	return registry, nil
}

// Registry is a [SourceRegistry] that also finds the dialect's snapshots.
func Registry(dialect migverify.Dialect) (*migverify.Registry, error) {
	registry, err := SourceRegistry()
	if err != nil {
		return nil, err
	}
	registry.SnapshotExtension = State.SnapshotExtension(dialect).Value()
	return registry, nil
}

// If the user has not explicitly specified a pgx statement caching parameter
// in their connection string, set it to "exec", which will work correctly
// even when connecting to bouncers/poolers like Pgbouncer. If we don't do
// this, the default value pgx chooses is "cache_statement", which breaks when
// you connect to a pooler.
func setDefaultStatementCachingParameter(connstr string) (string, error) {
	eurl, err := url.Parse(connstr)
	if err != nil {
		return "", fmt.Errorf("failed to parse 'database' URL: %w", err)
	}
	query := eurl.Query()
	// https://pkg.go.dev/github.com/jackc/pgx/v5#QueryExecMode
	queryModeParam := "default_query_exec_mode"
	execModeValue := "exec"
	if !query.Has(queryModeParam) {
		query.Add(queryModeParam, execModeValue)
	}
	eurl.RawQuery = query.Encode()
	return eurl.String(), nil
}
