package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	Permissions  uint32
	RelativePath string
}

// Backend defines the operations the executor needs on the destination tree.
// Relative paths are resolved against the backend root; absolute paths are
// used as given. No method ever replaces an existing destination.
type Backend interface {
	// ListDirs returns every directory below the root, relative to it
	ListDirs(ctx context.Context) ([]string, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write stores the content under path through a temporary file in the
	// same directory. If metadata is provided, timestamps and permissions
	// are preserved.
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Link creates a hard link at path to source
	Link(ctx context.Context, source, path string) error

	// Symlink creates a symbolic link at path pointing to target
	Symlink(ctx context.Context, target, path string) error

	// Exists checks if a file, directory or link exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}
