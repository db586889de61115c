package migverify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/peterldowns/migverify/catalog"
	"github.com/peterldowns/migverify/internal/multierr"
)

// Engine executes statements against a database and describes the resulting
// schema.
type Engine interface {
	// Build executes statements in order and returns the catalog of the
	// resulting database. If target is empty, the statements run against a
	// fresh, empty database. Otherwise target is the path to a snapshot file
	// that the engine may modify.
	//
	// Build returns a [*StatementExecutionError] for the first statement that
	// fails to execute.
	Build(ctx context.Context, target string, statements []Statement) (*catalog.Catalog, error)
}

// Dialect describes a database engine and the conventions that go with it.
type Dialect struct {
	Name string
	// AllowsReferenceCycles is true if tables can be created before the tables
	// that they reference.
	AllowsReferenceCycles bool
	// SnapshotExtension is the extension of this dialect's snapshot files.
	SnapshotExtension string
	// WritesSnapshots is true if building against a new file leaves a snapshot
	// in that file, so that [Builder.WriteSnapshot] can create one.
	WritesSnapshots bool
	Engine          Engine
}

// Builder creates catalogs, either from definitions or by replaying migrations
// against a snapshot.
type Builder struct {
	Engine Engine
	// WorkingDirectory is where snapshots are copied before migrations are
	// replayed against them. If empty, a temporary directory is created and
	// removed for each build.
	WorkingDirectory string
	Logger           Logger
}

func NewBuilder(engine Engine) *Builder {
	return &Builder{Engine: engine}
}

// FromDefinitions builds a catalog by executing the initialization statements
// of files against a fresh database.
func (b *Builder) FromDefinitions(ctx context.Context, files []SourceFile, allowReferenceCycles bool) (*catalog.Catalog, error) {
	statements := InitializationStatements(files, allowReferenceCycles)
	b.debug(ctx, "building catalog from definitions",
		LogField{Key: "files", Value: len(files)},
		LogField{Key: "statements", Value: len(statements)},
	)
	return b.Engine.Build(ctx, "", statements)
}

// FromMigrations builds a catalog by replaying every migration with a version
// greater than the snapshot's version against a copy of the snapshot. The copy
// is removed when the build finishes, whether or not it succeeded; the
// snapshot itself is never modified.
func (b *Builder) FromMigrations(ctx context.Context, migrations []Migration, snapshot Snapshot) (cat *catalog.Catalog, err error) {
	selected := MigrationsAfter(migrations, snapshot.Version)
	b.debug(ctx, "replaying migrations",
		LogField{Key: "snapshot", Value: snapshot.Name},
		LogField{Key: "migrations", Value: len(selected)},
	)

	dir := b.WorkingDirectory
	if dir == "" {
		dir, err = os.MkdirTemp("", "migverify-")
		if err != nil {
			return nil, fmt.Errorf("create working directory: %w", err)
		}
		defer func() {
			err = multierr.Join(err, os.RemoveAll(dir))
		}()
	}
	copyPath, err := copySnapshot(snapshot, dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(copyPath); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Join(err, fmt.Errorf("remove snapshot copy: %w", rmErr))
		}
	}()
	return b.Engine.Build(ctx, copyPath, Statements(selected))
}

// WriteSnapshot creates a snapshot of the schema described by files by
// executing their initialization statements against a new database file at
// path. It fails if path already exists, and removes the partial file if the
// build fails. Only engines of dialects with WritesSnapshots support this.
func (b *Builder) WriteSnapshot(ctx context.Context, files []SourceFile, allowReferenceCycles bool, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("snapshot %s already exists", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	statements := InitializationStatements(files, allowReferenceCycles)
	b.debug(ctx, "writing snapshot",
		LogField{Key: "path", Value: path},
		LogField{Key: "statements", Value: len(statements)},
	)
	if _, err := b.Engine.Build(ctx, path, statements); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return multierr.Join(err, fmt.Errorf("remove partial snapshot: %w", rmErr))
		}
		return err
	}
	return nil
}

func copySnapshot(snapshot Snapshot, dir string) (path string, err error) {
	src, err := snapshot.FS.Open(snapshot.Path)
	if err != nil {
		return "", fmt.Errorf("open snapshot %s: %w", snapshot.Name, err)
	}
	defer src.Close()
	dst, err := os.CreateTemp(dir, "*-"+snapshot.Name)
	if err != nil {
		return "", fmt.Errorf("copy snapshot %s: %w", snapshot.Name, err)
	}
	defer func() {
		err = multierr.Join(err, dst.Close())
		if err != nil {
			_ = os.Remove(dst.Name())
		}
	}()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy snapshot %s: %w", snapshot.Name, err)
	}
	return dst.Name(), nil
}

func (b *Builder) debug(ctx context.Context, msg string, fields ...LogField) {
	if hl, ok := b.Logger.(Helper); ok {
		hl.Helper()
	}
	logTo(ctx, b.Logger, LogLevelDebug, msg, fields...)
}
