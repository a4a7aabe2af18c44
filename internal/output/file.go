package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// File writes rendered documents to a path on disk, replacing any existing
// content.
type File struct {
	path string
}

// NewFile creates a File sink for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Write creates missing parent directories, then writes text with mode 0644.
func (f *File) Write(ctx context.Context, name, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(f.path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}

	slog.Debug("document written", "sink", f.Name(), "source", name, "path", f.path, "bytes", len(text))
	return nil
}

// Name returns the sink name.
func (f *File) Name() string {
	return "file"
}
