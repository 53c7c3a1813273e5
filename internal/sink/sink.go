// Package sink writes run directories to local disk or object storage.
package sink

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Sink stores files under slash-separated names relative to its root.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	// Location describes where a name is stored, for logs and the manifest.
	Location(name string) string
}

// FS writes files below a local directory.
type FS struct {
	Root string
}

// NewFS creates a sink rooted at dir.
func NewFS(dir string) *FS {
	return &FS{Root: dir}
}

// Put writes data to name, creating parent directories.
func (s *FS) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := s.Location(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Location returns the local path of name.
func (s *FS) Location(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(path.Clean(name)))
}
