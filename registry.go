package migverify

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterldowns/migverify/internal/sqlsplit"
)

const (
	DefaultDefinitionExtension = ".sq"
	DefaultMigrationExtension  = ".sqm"
	DefaultSnapshotExtension   = ".db"
)

// Definition is a single statement from a definition file. Definitions with a
// Label (written as "label: SELECT ...") are named queries; unlabeled
// definitions describe the schema.
type Definition struct {
	Label string
	Statement
}

// SourceFile is a parsed definition file.
type SourceFile struct {
	Path        string
	Definitions []Definition
}

// Registry discovers definition, migration, and snapshot files in a set of
// folders. Every folder is searched recursively for each kind of file, which is
// identified by its extension.
type Registry struct {
	Folders             []fs.FS
	DefinitionExtension string
	MigrationExtension  string
	SnapshotExtension   string
}

// NewRegistry creates a [Registry] with the default extensions:
//
//   - DefinitionExtension: [DefaultDefinitionExtension]
//   - MigrationExtension: [DefaultMigrationExtension]
//   - SnapshotExtension: [DefaultSnapshotExtension]
//
// To configure these fields, just set the values on the struct.
func NewRegistry(folders ...fs.FS) *Registry {
	return &Registry{
		Folders:             folders,
		DefinitionExtension: DefaultDefinitionExtension,
		MigrationExtension:  DefaultMigrationExtension,
		SnapshotExtension:   DefaultSnapshotExtension,
	}
}

// Migrations returns every migration file, sorted in ascending order by
// version. Every file name is validated before any file is read, so an invalid
// name fails the call without doing any other work.
func (r *Registry) Migrations() ([]Migration, error) {
	type found struct {
		folder  fs.FS
		path    string
		version int
	}
	var files []found
	for _, folder := range r.Folders {
		err := r.walk(folder, r.MigrationExtension, func(path string) error {
			version, err := ParseVersion(path)
			if err != nil {
				return err
			}
			files = append(files, found{folder: folder, path: path, version: version})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	migrations := make([]Migration, 0, len(files))
	for _, f := range files {
		data, err := fs.ReadFile(f.folder, f.path)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", f.path, err)
		}
		migrations = append(migrations, Migration{
			Version:    f.version,
			Name:       NameFromFilename(f.path),
			Path:       f.path,
			Statements: statements(f.path, string(data)),
		})
	}
	SortByVersion(migrations)
	return migrations, nil
}

// Snapshots returns every snapshot file in the order in which they were found.
// A snapshot's name, without its extension, must be an integer.
func (r *Registry) Snapshots() ([]Snapshot, error) {
	var snapshots []Snapshot
	for _, folder := range r.Folders {
		err := r.walk(folder, r.SnapshotExtension, func(path string) error {
			name := NameFromFilename(path)
			version, err := strconv.Atoi(name)
			if err != nil {
				return &InvalidMigrationNameError{Name: filepath.Base(path)}
			}
			snapshots = append(snapshots, Snapshot{
				Version: version,
				Name:    name + r.SnapshotExtension,
				Path:    path,
				FS:      folder,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

// Definitions returns every definition file, parsed into its labeled and
// unlabeled definitions, in the order in which they were found.
func (r *Registry) Definitions() ([]SourceFile, error) {
	var files []SourceFile
	for _, folder := range r.Folders {
		err := r.walk(folder, r.DefinitionExtension, func(path string) error {
			data, err := fs.ReadFile(folder, path)
			if err != nil {
				return fmt.Errorf("read definitions %s: %w", path, err)
			}
			file := SourceFile{Path: path}
			for _, stmt := range statements(path, string(data)) {
				label, sql := sqlsplit.Label(stmt.SQL)
				stmt.SQL = sql
				file.Definitions = append(file.Definitions, Definition{Label: label, Statement: stmt})
			}
			files = append(files, file)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (r *Registry) walk(folder fs.FS, extension string, fn func(path string) error) error {
	if extension == "" {
		return nil
	}
	return fs.WalkDir(folder, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, extension) {
			return nil
		}
		return fn(path)
	})
}

func statements(origin, text string) []Statement {
	var out []Statement
	for _, sql := range sqlsplit.Split(text) {
		out = append(out, Statement{SQL: sql, Origin: origin})
	}
	return out
}
