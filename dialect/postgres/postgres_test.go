package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/catalog"
	"github.com/peterldowns/migverify/dialect/postgres"
	"github.com/peterldowns/migverify/internal/withdb"
)

func requireServer(t *testing.T) {
	t.Helper()
	withdb.RequireServer(t, postgres.DriverName)
}

func stmts(origin string, sqls ...string) []migverify.Statement {
	out := make([]migverify.Statement, 0, len(sqls))
	for _, sql := range sqls {
		out = append(out, migverify.Statement{SQL: sql, Origin: origin})
	}
	return out
}

func TestBuildFresh(t *testing.T) {
	t.Parallel()
	requireServer(t)
	ctx := context.Background()
	engine := postgres.NewEngine(withdb.TestServer)
	cat, err := engine.Build(ctx, "", stmts("schema.sq",
		"CREATE TYPE mood AS ENUM ('happy', 'grumpy')",
		"CREATE TABLE owners (id bigint PRIMARY KEY, email text NOT NULL UNIQUE)",
		"CREATE TABLE cats (id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY, owner_id bigint REFERENCES owners (id) ON DELETE CASCADE, feeling mood, CHECK (id > 0))",
		"CREATE INDEX cats_by_owner ON cats (owner_id) WHERE owner_id IS NOT NULL",
		"CREATE VIEW cat_owners AS SELECT cats.id, owners.email FROM cats JOIN owners ON owners.id = cats.owner_id",
	))
	assert.Nil(t, err)

	check.Equal(t, &catalog.Enum{Name: "mood", Values: []string{"happy", "grumpy"}}, cat.Enums["mood"])
	cats := cat.Tables["cats"]
	assert.NotEqual(t, nil, cats)
	check.Equal(t, []catalog.Column{
		{Name: "id", Type: "bigint", NotNull: true, Identity: "always"},
		{Name: "owner_id", Type: "bigint"},
		{Name: "feeling", Type: "mood"},
	}, cats.Columns)
	check.Equal(t, []string{"id"}, cats.PrimaryKey)
	check.Equal(t, []string{"CHECK ((id > 0))"}, cats.Checks)
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
		Predicate: "(owner_id IS NOT NULL)",
	}, cats.Indexes["cats_by_owner"])
	check.Equal(t, [][]string{{"email"}}, cat.Tables["owners"].Uniques)
	check.Equal(t, 0, len(cat.Tables["owners"].Indexes))

	view := cat.Views["cat_owners"]
	assert.NotEqual(t, nil, view)
	check.Equal(t, []catalog.Column{{Name: "id", Type: "bigint"}, {Name: "email", Type: "text"}}, view.Columns)
}

func TestBuildFromDump(t *testing.T) {
	t.Parallel()
	requireServer(t)
	ctx := context.Background()
	dump := filepath.Join(t.TempDir(), "1.sql")
	assert.Nil(t, os.WriteFile(dump, []byte(`
SELECT pg_catalog.set_config('search_path', '', false);
CREATE TABLE public.cats (id bigint NOT NULL);
`), 0o644))

	engine := postgres.NewEngine(withdb.TestServer)
	cat, err := engine.Build(ctx, dump, stmts("0002_names.sqm",
		"ALTER TABLE cats ADD COLUMN name text",
	))
	assert.Nil(t, err)
	check.Equal(t, []catalog.Column{
		{Name: "id", Type: "bigint", NotNull: true},
		{Name: "name", Type: "text"},
	}, cat.Tables["cats"].Columns)
}

func TestBuildReportsStatementErrors(t *testing.T) {
	t.Parallel()
	requireServer(t)
	ctx := context.Background()
	engine := postgres.NewEngine(withdb.TestServer)
	_, err := engine.Build(ctx, "", stmts("0003_broken.sqm", "ALTER TABLE dogs ADD COLUMN name text"))
	var serr *migverify.StatementExecutionError
	assert.True(t, errors.As(err, &serr))
	check.Equal(t, "0003_broken.sqm", serr.Statement.Origin)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	check.Equal(t, "42P01", pgErr.Code)
}

func TestDialect(t *testing.T) {
	t.Parallel()
	dialect := postgres.Dialect(withdb.TestServer)
	check.Equal(t, "postgres", dialect.Name)
	check.Equal(t, false, dialect.AllowsReferenceCycles)
	check.Equal(t, ".sql", dialect.SnapshotExtension)
	check.Equal(t, false, dialect.WritesSnapshots)
}

func TestBuildDefinitionsWithPrerequisites(t *testing.T) {
	t.Parallel()
	requireServer(t)
	file := migverify.SourceFile{Path: "schema.sq"}
	for _, sql := range []string{
		"CREATE TABLE person (id bigint PRIMARY KEY, m mood NOT NULL)",
		"CREATE TRIGGER person_touch BEFORE UPDATE ON person FOR EACH ROW EXECUTE FUNCTION touch()",
		"CREATE TYPE mood AS ENUM ('sad', 'ok')",
		"CREATE FUNCTION touch() RETURNS trigger AS $$ BEGIN RETURN NEW; END $$ LANGUAGE plpgsql",
	} {
		file.Definitions = append(file.Definitions, migverify.Definition{
			Statement: migverify.Statement{SQL: sql, Origin: file.Path},
		})
	}
	dialect := postgres.Dialect(withdb.TestServer)
	cat, err := migverify.NewBuilder(dialect.Engine).FromDefinitions(
		context.Background(), []migverify.SourceFile{file}, dialect.AllowsReferenceCycles,
	)
	assert.Nil(t, err)
	check.Equal(t, []string{"sad", "ok"}, cat.Enums["mood"].Values)
	check.True(t, cat.Triggers["person.person_touch"] != nil)
}
