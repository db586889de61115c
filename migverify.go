// Package migverify checks that a project's versioned migration files, replayed
// against historical database snapshots, produce exactly the schema described
// by its current declarative schema definitions. It can also squash migration
// files into standalone SQL files.
package migverify

import (
	"context"
	"io/fs"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Verify loads the definition, migration, and snapshot files in folders and
// verifies them with a default [Verifier] for dialect. See [Verifier.Verify].
func Verify(ctx context.Context, dialect Dialect, logger Logger, folders ...fs.FS) error {
	verifier := NewVerifier(dialect)
	verifier.Logger = logger
	registry := NewRegistry(folders...)
	if dialect.SnapshotExtension != "" {
		registry.SnapshotExtension = dialect.SnapshotExtension
	}
	return verifier.Verify(ctx, registry)
}

// Squash loads the migration files in folders and writes them to outputDir on
// output. See [Squasher.Squash].
func Squash(ctx context.Context, output vfs.FileSystem, outputDir, extension string, logger Logger, folders ...fs.FS) error {
	migrations, err := NewRegistry(folders...).Migrations()
	if err != nil {
		return err
	}
	squasher := NewSquasher(output)
	squasher.Logger = logger
	return squasher.Squash(ctx, migrations, outputDir, extension)
}
