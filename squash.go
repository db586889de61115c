package migverify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Squasher writes migrations out as standalone SQL files.
type Squasher struct {
	FS     vfs.FileSystem
	Logger Logger
}

func NewSquasher(fs vfs.FileSystem) *Squasher {
	return &Squasher{FS: fs}
}

// Squash deletes the direct entries of outputDir, then writes one file per
// migration, named after the migration with the given extension. Each file contains the
// migration's statements, each terminated by a semicolon and separated by a
// blank line. A migration with no statements produces an empty file.
// Deletion is not recursive: subdirectories that are not empty are kept.
func (s *Squasher) Squash(ctx context.Context, migrations []Migration, outputDir, extension string) error {
	if err := s.FS.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	entries, err := vfs.ReadDir(s.FS, outputDir)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	for _, entry := range entries {
		name := filepath.Join(outputDir, entry.Name())
		if err := s.FS.Remove(name); err != nil {
			if entry.IsDir() {
				s.debug(ctx, "kept non-empty directory", LogField{Key: "path", Value: name})
				continue
			}
			return fmt.Errorf("clear output directory: %w", err)
		}
	}
	for _, m := range migrations {
		name := m.Name + extension
		if err := vfs.WriteFile(s.FS, filepath.Join(outputDir, name), []byte(SquashedSQL(m)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		s.debug(ctx, "squashed", LogField{Key: "migration", Value: m.Name}, LogField{Key: "file", Value: name})
	}
	return nil
}

// SquashedSQL returns the text of a migration as it is written by [Squasher].
func SquashedSQL(m Migration) string {
	parts := make([]string, 0, len(m.Statements))
	for _, stmt := range m.Statements {
		parts = append(parts, stmt.SQL+";")
	}
	return strings.Join(parts, "\n\n")
}

func (s *Squasher) debug(ctx context.Context, msg string, fields ...LogField) {
	if hl, ok := s.Logger.(Helper); ok {
		hl.Helper()
	}
	logTo(ctx, s.Logger, LogLevelDebug, msg, fields...)
}
