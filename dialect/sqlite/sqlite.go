// Package sqlite builds catalogs by executing statements with the pure-Go
// SQLite driver modernc.org/sqlite. Snapshots are SQLite database files.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/peterldowns/migverify"
	"github.com/peterldowns/migverify/catalog"
	"github.com/peterldowns/migverify/internal/multierr"
)

const (
	DriverName        = "sqlite"
	SnapshotExtension = ".db"
)

// Dialect returns the SQLite [migverify.Dialect]. SQLite resolves foreign key
// references lazily, so tables may be created before the tables they
// reference.
func Dialect() migverify.Dialect {
	return migverify.Dialect{
		Name:                  "sqlite",
		AllowsReferenceCycles: true,
		SnapshotExtension:     SnapshotExtension,
		WritesSnapshots:       true,
		Engine:                NewEngine(),
	}
}

// Engine is a [migverify.Engine] backed by SQLite.
type Engine struct {
	// ForeignKeys turns on foreign key enforcement while statements execute.
	// It is off by default, matching SQLite, so that migrations can rebuild
	// tables that other tables reference.
	ForeignKeys bool
}

func NewEngine() *Engine {
	return &Engine{}
}

// Build executes statements against an in-memory database if target is empty,
// or against the database file at target otherwise, and returns its catalog.
func (e *Engine) Build(ctx context.Context, target string, statements []migverify.Statement) (cat *catalog.Catalog, err error) {
	dsn := target
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		err = multierr.Join(err, db.Close())
	}()
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	defer func() {
		err = multierr.Join(err, conn.Close())
	}()
	if e.ForeignKeys {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt.SQL); err != nil {
			return nil, &migverify.StatementExecutionError{Statement: stmt, Err: err}
		}
	}
	return Inspect(ctx, conn)
}
