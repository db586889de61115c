package migverify

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestRegistryMigrations(t *testing.T) {
	t.Parallel()
	first := fstest.MapFS{
		"0003_c.sqm":     {Data: []byte("CREATE TABLE c (id INTEGER);")},
		"nested/1_a.sqm": {Data: []byte("CREATE TABLE a (id INTEGER);\n-- comment only;\nCREATE TABLE a2 (id INTEGER)")},
		"notes.txt":      {Data: []byte("ignored")},
	}
	second := fstest.MapFS{
		"v2_b.sqm": {Data: []byte("")},
	}
	migrations, err := NewRegistry(first, second).Migrations()
	assert.Nil(t, err)
	assert.Equal(t, 3, len(migrations))

	check.Equal(t, []int{1, 2, 3}, []int{migrations[0].Version, migrations[1].Version, migrations[2].Version})
	check.Equal(t, "1_a", migrations[0].Name)
	check.Equal(t, "nested/1_a.sqm", migrations[0].Path)
	check.Equal(t, []Statement{
		{SQL: "CREATE TABLE a (id INTEGER)", Origin: "nested/1_a.sqm"},
		{SQL: "CREATE TABLE a2 (id INTEGER)", Origin: "nested/1_a.sqm"},
	}, migrations[0].Statements)
	check.Equal(t, 0, len(migrations[1].Statements))
}

func TestRegistryMigrationsInvalidName(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"0001_ok.sqm": {Data: []byte("SELECT 1;")},
		"initial.sqm": {Data: []byte("SELECT 1;")},
	}
	_, err := NewRegistry(fsys).Migrations()
	var invalid *InvalidMigrationNameError
	assert.True(t, errors.As(err, &invalid))
	check.Equal(t, "initial.sqm", invalid.Name)
}

func TestRegistrySnapshots(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"databases/3.db":  {},
		"databases/10.db": {},
		"databases/1.db":  {},
		"schema.sq":       {},
	}
	snapshots, err := NewRegistry(fsys).Snapshots()
	assert.Nil(t, err)
	var names []string
	var versions []int
	for _, s := range snapshots {
		names = append(names, s.Name)
		versions = append(versions, s.Version)
	}
	// discovery order, not version order.
	check.Equal(t, []string{"1.db", "10.db", "3.db"}, names)
	check.Equal(t, []int{1, 10, 3}, versions)
}

func TestRegistrySnapshotsInvalidName(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"databases/v1.db": {}}
	_, err := NewRegistry(fsys).Snapshots()
	var invalid *InvalidMigrationNameError
	assert.True(t, errors.As(err, &invalid))
	check.Equal(t, "v1.db", invalid.Name)
}

func TestRegistrySnapshotExtension(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"1.db": {}, "2.sql": {}}
	registry := NewRegistry(fsys)
	registry.SnapshotExtension = ".sql"
	snapshots, err := registry.Snapshots()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(snapshots))
	check.Equal(t, "2.sql", snapshots[0].Name)
	check.Equal(t, 2, snapshots[0].Version)
}

func TestRegistryDefinitions(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"com/example/Cat.sq": {Data: []byte(`
CREATE TABLE cats (id INTEGER PRIMARY KEY);

selectAll:
SELECT * FROM cats;

insert:
INSERT INTO cats (id) VALUES (?);
`)},
	}
	files, err := NewRegistry(fsys).Definitions()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(files))
	check.Equal(t, "com/example/Cat.sq", files[0].Path)
	check.Equal(t, []Definition{
		{Statement: Statement{SQL: "CREATE TABLE cats (id INTEGER PRIMARY KEY)", Origin: "com/example/Cat.sq"}},
		{Label: "selectAll", Statement: Statement{SQL: "SELECT * FROM cats", Origin: "com/example/Cat.sq"}},
		{Label: "insert", Statement: Statement{SQL: "INSERT INTO cats (id) VALUES (?)", Origin: "com/example/Cat.sq"}},
	}, files[0].Definitions)
}
