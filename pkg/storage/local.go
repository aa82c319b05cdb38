package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sdejongh/filenorris/pkg/models"
)

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
}

// NewLocal creates a local backend rooted at rootPath. The root does not
// have to exist yet; it is created by the first MkdirAll or Write.
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err == nil && !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	return &Local{rootPath: absPath}, nil
}

// Root returns the absolute root of the backend
func (l *Local) Root() string {
	return l.rootPath
}

func (l *Local) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.rootPath, path)
}

// ListDirs returns every directory below the root, sorted. A missing root
// has no directories.
func (l *Local) ListDirs(ctx context.Context) ([]string, error) {
	var dirs []string

	err := filepath.WalkDir(l.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == l.rootPath && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if !d.IsDir() || p == l.rootPath {
			return nil
		}

		relPath, err := filepath.Rel(l.rootPath, p)
		if err != nil {
			return err
		}
		dirs = append(dirs, relPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directories: %w", err)
	}

	sort.Strings(dirs)
	return dirs, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Write streams reader into a temporary file next to path, then moves it
// into place without replacing an existing file. The temporary file is
// removed on any failure.
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) (err error) {
	fullPath := l.resolve(path)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, reader)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if written != size {
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if metadata != nil {
		if metadata.Permissions != 0 {
			if err := os.Chmod(tmpPath, os.FileMode(metadata.Permissions)); err != nil {
				return fmt.Errorf("failed to set permissions: %w", err)
			}
		}
		if !metadata.ModTime.IsZero() {
			if err := os.Chtimes(tmpPath, metadata.ModTime, metadata.ModTime); err != nil {
				return fmt.Errorf("failed to set modification time: %w", err)
			}
		}
	}

	return l.publish(tmpPath, fullPath)
}

// publish moves tmpPath to fullPath unless fullPath exists. A hard link is
// atomic and fails on an existing target; filesystems without hard links
// fall back to a checked rename.
func (l *Local) publish(tmpPath, fullPath string) error {
	linkErr := os.Link(tmpPath, fullPath)
	if linkErr == nil {
		os.Remove(tmpPath)
		return nil
	}
	if errors.Is(linkErr, fs.ErrExist) {
		return fmt.Errorf("%s: %w", fullPath, models.ErrDestinationExists)
	}

	if _, err := os.Lstat(fullPath); err == nil {
		return fmt.Errorf("%s: %w", fullPath, models.ErrDestinationExists)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Link creates a hard link at path to source
func (l *Local) Link(ctx context.Context, source, path string) error {
	fullPath := l.resolve(path)
	if err := os.Link(source, fullPath); err != nil {
		return existsOr(fullPath, err)
	}
	return nil
}

// Symlink creates a symbolic link at path pointing to target
func (l *Local) Symlink(ctx context.Context, target, path string) error {
	fullPath := l.resolve(path)
	if err := os.Symlink(target, fullPath); err != nil {
		return existsOr(fullPath, err)
	}
	return nil
}

func existsOr(path string, err error) error {
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", path, models.ErrDestinationExists)
	}
	return err
}

// Exists checks if a file, directory or link exists. Dangling symlinks exist.
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := l.resolve(path)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		relPath = ""
	}

	return &FileInfo{
		Path:         fullPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: relPath,
	}, nil
}

// MkdirAll creates a directory and all necessary parents.
// An existing directory is not an error.
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := os.MkdirAll(l.resolve(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}
