package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/catalog"
	"github.com/peterldowns/migverify/dialect/sqlite"
)

func stmts(origin string, sqls ...string) []migverify.Statement {
	out := make([]migverify.Statement, 0, len(sqls))
	for _, sql := range sqls {
		out = append(out, migverify.Statement{SQL: sql, Origin: origin})
	}
	return out
}

func TestBuildFresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat, err := sqlite.NewEngine().Build(ctx, "", stmts("schema.sq",
		"CREATE TABLE owners (id INTEGER PRIMARY KEY, email text NOT NULL UNIQUE)",
		"CREATE TABLE cats (id INTEGER PRIMARY KEY, owner_id INTEGER REFERENCES owners(id) ON DELETE CASCADE, name TEXT DEFAULT 'kitty')",
		"CREATE INDEX cats_by_owner ON cats (owner_id) WHERE owner_id IS NOT NULL",
		"CREATE VIEW cat_names AS SELECT name FROM cats",
		`CREATE TRIGGER cats_audit AFTER INSERT ON cats BEGIN
			SELECT 1;
		END`,
	))
	assert.Nil(t, err)

	assert.Equal(t, 2, len(cat.Tables))
	cats := cat.Tables["cats"]
	check.Equal(t, []catalog.Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "owner_id", Type: "INTEGER"},
		{Name: "name", Type: "TEXT", Default: "'kitty'"},
	}, cats.Columns)
	check.Equal(t, []string{"id"}, cats.PrimaryKey)
	check.Equal(t, []catalog.ForeignKey{{
		Columns:    []string{"owner_id"},
		RefTable:   "owners",
		RefColumns: []string{"id"},
		OnUpdate:   "NO ACTION",
		OnDelete:   "CASCADE",
	}}, cats.ForeignKeys)
	check.Equal(t, &catalog.Index{
		Name:      "cats_by_owner",
		Columns:   []string{"owner_id"},
		Predicate: "owner_id IS NOT NULL",
	}, cats.Indexes["cats_by_owner"])

	owners := cat.Tables["owners"]
	check.Equal(t, [][]string{{"email"}}, owners.Uniques)
	check.Equal(t, 0, len(owners.Indexes))
	check.Equal(t, catalog.Column{Name: "email", Type: "TEXT", NotNull: true}, owners.Columns[1])

	assert.NotEqual(t, nil, cat.Views["cat_names"])
	check.Equal(t, "CREATE VIEW cat_names AS SELECT name FROM cats", cat.Views["cat_names"].Definition)
	check.Equal(t, []catalog.Column{{Name: "name", Type: "TEXT"}}, cat.Views["cat_names"].Columns)
	assert.NotEqual(t, nil, cat.Triggers["cats_audit"])
	check.Equal(t, "cats", cat.Triggers["cats_audit"].Table)
}

func TestBuildAgainstExistingFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine := sqlite.NewEngine()
	path := filepath.Join(t.TempDir(), "1.db")

	_, err := engine.Build(ctx, path, stmts("1.sqm", "CREATE TABLE cats (id INTEGER PRIMARY KEY)"))
	assert.Nil(t, err)
	cat, err := engine.Build(ctx, path, stmts("2.sqm", "ALTER TABLE cats ADD COLUMN name TEXT"))
	assert.Nil(t, err)
	check.Equal(t, []catalog.Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "name", Type: "TEXT"},
	}, cat.Tables["cats"].Columns)
}

func TestBuildFailsOnFirstBadStatement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, err := sqlite.NewEngine().Build(ctx, "", stmts("0002_broken.sqm",
		"CREATE TABLE cats (id INTEGER)",
		"ALTER TABLE dogs ADD COLUMN name TEXT",
		"CREATE TABLE never (id INTEGER)",
	))
	var serr *migverify.StatementExecutionError
	assert.True(t, errors.As(err, &serr))
	check.Equal(t, "0002_broken.sqm", serr.Statement.Origin)
	check.Equal(t, "ALTER TABLE dogs ADD COLUMN name TEXT", serr.Statement.SQL)
	check.Error(t, serr.Unwrap())
}

func TestBuildAllowsForwardReferences(t *testing.T) {
	t.Parallel()
	cat, err := sqlite.NewEngine().Build(context.Background(), "", stmts("schema.sq",
		"CREATE TABLE a (id INTEGER PRIMARY KEY, b_id INTEGER REFERENCES b(id))",
		"CREATE TABLE b (id INTEGER PRIMARY KEY, a_id INTEGER REFERENCES a(id))",
	))
	assert.Nil(t, err)
	check.Equal(t, 2, len(cat.Tables))
	check.True(t, sqlite.Dialect().AllowsReferenceCycles)
}

func TestCompareReplayedSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine := sqlite.NewEngine()
	golden, err := engine.Build(ctx, "", stmts("schema.sq",
		"CREATE TABLE cats (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		"CREATE INDEX cats_name ON cats (name)",
	))
	assert.Nil(t, err)
	replayed, err := engine.Build(ctx, "", stmts("migrations",
		"CREATE TABLE cats (id INTEGER PRIMARY KEY)",
		"ALTER TABLE cats ADD COLUMN name TEXT NOT NULL DEFAULT ''",
		"CREATE INDEX cats_name ON cats (name)",
	))
	assert.Nil(t, err)
	report := catalog.NewComparator().Compare(golden, replayed)
	assert.Equal(t, 1, len(report.Entries))
	check.Equal(t, `Tables["cats"].Columns[1].Default`, report.Entries[0].Path)
}

func TestBuildCapturesChecksAndCollations(t *testing.T) {
	t.Parallel()
	cat, err := sqlite.NewEngine().Build(context.Background(), "", stmts("schema.sq",
		"CREATE TABLE t (x INTEGER CHECK (x > 0) COLLATE NOCASE, y TEXT)",
	))
	assert.Nil(t, err)
	table := cat.Tables["t"]
	assert.NotEqual(t, nil, table)
	check.Equal(t, []string{"x > 0"}, table.Checks)
	check.Equal(t, []catalog.Column{
		{Name: "x", Type: "INTEGER", Collation: "NOCASE"},
		{Name: "y", Type: "TEXT"},
	}, table.Columns)
}

func TestBuildKeepsTablesThatLookInternal(t *testing.T) {
	t.Parallel()
	cat, err := sqlite.NewEngine().Build(context.Background(), "", stmts("schema.sq",
		"CREATE TABLE sqliteXfoo (id INTEGER)",
		"CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT)",
	))
	assert.Nil(t, err)
	check.NotEqual(t, nil, cat.Tables["sqliteXfoo"])
	check.NotEqual(t, nil, cat.Tables["t"])
	// sqlite_sequence is created for AUTOINCREMENT and is not part of the schema.
	check.Equal(t, 2, len(cat.Tables))
}
