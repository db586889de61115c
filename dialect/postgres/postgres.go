// Package postgres builds catalogs by executing statements in ephemeral
// postgres databases. Snapshots are schema dumps, as written by
// `pg_dump --schema-only`, that are loaded into the ephemeral database before
// any statements run.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/catalog"
	"github.com/peterldowns/migverify/internal/withdb"
)

const (
	DriverName        = "pgx"
	SnapshotExtension = ".sql"
	DefaultSchema     = "public"
)

// Dialect returns the postgres [migverify.Dialect] for the server at
// serverURL. Postgres checks foreign key references when a table is created,
// so tables must be created after the tables they reference.
func Dialect(serverURL string) migverify.Dialect {
	return migverify.Dialect{
		Name:                  "postgres",
		AllowsReferenceCycles: false,
		SnapshotExtension:     SnapshotExtension,
		Engine:                NewEngine(serverURL),
	}
}

// Engine is a [migverify.Engine] that creates a new database on a postgres
// server for every build and drops it when the build is done.
type Engine struct {
	// ServerURL is a postgres:// connection string for a user that is
	// allowed to create and drop databases.
	ServerURL string
	// Schemas are the schemas whose objects are included in the catalog.
	//
	// [NewEngine] defaults it to [DefaultSchema].
	Schemas []string
}

func NewEngine(serverURL string) *Engine {
	return &Engine{
		ServerURL: serverURL,
		Schemas:   []string{DefaultSchema},
	}
}

// Build loads the schema dump at target, if target is not empty, into a fresh
// database, executes statements in order, and returns the database's catalog.
func (e *Engine) Build(ctx context.Context, target string, statements []migverify.Statement) (*catalog.Catalog, error) {
	var dump []byte
	if target != "" {
		var err error
		dump, err = os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
	}
	var cat *catalog.Catalog
	err := withdb.With(ctx, DriverName, e.ServerURL, func(db *sql.DB) error {
		// Session settings changed by the dump must not leak into the
		// statements, so everything runs on a single connection.
		db.SetMaxOpenConns(1)
		if len(dump) > 0 {
			if _, err := db.ExecContext(ctx, string(dump)); err != nil {
				return fmt.Errorf("load snapshot %s: %w", target, err)
			}
			if _, err := db.ExecContext(ctx, "RESET ALL"); err != nil {
				return fmt.Errorf("reset session: %w", err)
			}
		}
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt.SQL); err != nil {
				return &migverify.StatementExecutionError{Statement: stmt, Err: err}
			}
		}
		var err error
		cat, err = Inspect(ctx, db, e.Schemas)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}
