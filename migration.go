package migverify

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Statement is a single executable SQL statement.
type Statement struct {
	SQL    string
	Origin string // the file the statement was read from, used in error messages
}

// Migration represents a single versioned migration file.
type Migration struct {
	Version    int         // the first integer in the filename
	Name       string      // the filename, without its extension
	Path       string      // the path of the file inside of its folder
	Statements []Statement // in file order
}

// Snapshot is a serialized database representing the schema as of a released
// version: every migration with a version less than or equal to Version has
// already been applied to it. Snapshots are read-only; builds work against a
// copy.
type Snapshot struct {
	Version int
	Name    string // the filename, including its extension
	Path    string // the path of the file inside of FS
	FS      fs.FS
}

// ParseVersion returns the first run of digits in the base name of filename
// as an integer.
//
// Examples:
//
//	2 == ParseVersion("0002_add_col.sqm")
//	14 == ParseVersion("migrations/v14.sqm")
func ParseVersion(filename string) (int, error) {
	base := filepath.Base(filename)
	start := strings.IndexAny(base, "0123456789")
	if start == -1 {
		return 0, &InvalidMigrationNameError{Name: base}
	}
	end := start
	for end < len(base) && base[end] >= '0' && base[end] <= '9' {
		end++
	}
	version, err := strconv.Atoi(base[start:end])
	if err != nil {
		return 0, &InvalidMigrationNameError{Name: base}
	}
	return version, nil
}

// NameFromFilename removes directory paths and extensions from the filename to
// return just the filename (no extension).
//
// Examples:
//
//	"0001_initial" == NameFromFilename("0001_initial.sqm")
//	"0002_whatever.up" == NameFromFilename("0002_whatever.up.sqm")
func NameFromFilename(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// SortByVersion sorts a slice of [Migration] in ascending order by version.
// Migrations with the same version keep the order in which they were found.
func SortByVersion(migrations []Migration) {
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
}

// MigrationsAfter returns the migrations whose version is strictly greater than
// version, in their original order.
func MigrationsAfter(migrations []Migration, version int) []Migration {
	var after []Migration
	for _, m := range migrations {
		if m.Version > version {
			after = append(after, m)
		}
	}
	return after
}

// Statements flattens the statements of the given migrations, in migration
// order and then in file order.
func Statements(migrations []Migration) []Statement {
	var statements []Statement
	for _, m := range migrations {
		statements = append(statements, m.Statements...)
	}
	return statements
}
