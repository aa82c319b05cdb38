package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sdejongh/filenorris/internal/platform"
	"github.com/sdejongh/filenorris/pkg/logging"
	"github.com/sdejongh/filenorris/pkg/models"
)

// Options configures a Scanner
type Options struct {
	// Extensions is the supported set; matching is case-insensitive and
	// the leading dot is optional
	Extensions []string

	// Exclude holds glob patterns relative to the scan root
	Exclude []string

	// SkipDirs are absolute directories never descended into,
	// typically an output root located inside the input root
	SkipDirs []string
}

// Result holds the outcome of a scan
type Result struct {
	// Entries are sorted by absolute path
	Entries []models.FileEntry

	// Warnings describe skipped, unreadable sub-entries
	Warnings []string

	DirsScanned int
}

// Scanner discovers the input files of a run
type Scanner struct {
	extensions map[string]bool
	exclude    *excludeMatcher
	skipDirs   []string
	logger     logging.Logger
}

// New creates a scanner
func New(opts Options, logger logging.Logger) *Scanner {
	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[NormalizeExtension(ext)] = true
	}

	skip := make([]string, 0, len(opts.SkipDirs))
	for _, dir := range opts.SkipDirs {
		if abs, err := filepath.Abs(dir); err == nil {
			skip = append(skip, abs)
		}
	}

	return &Scanner{
		extensions: exts,
		exclude:    newExcludeMatcher(opts.Exclude),
		skipDirs:   skip,
		logger:     logging.OrNull(logger),
	}
}

// NormalizeExtension lowercases an extension and adds the leading dot
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// walkState is the per-scan mutable state
type walkState struct {
	root    string
	visited map[string]bool

	// recorded holds the absolute paths already returned as entries
	recorded map[string]bool
	result   *Result
}

// Scan walks root recursively and returns every supported regular file.
// Symlinks are followed, each target at most once.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &models.ScanError{Path: root, Err: err}
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &models.ScanError{Path: absRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &models.ScanError{Path: absRoot, Err: fmt.Errorf("not a directory")}
	}
	if _, err := os.ReadDir(absRoot); err != nil {
		return nil, &models.ScanError{Path: absRoot, Err: err}
	}

	state := &walkState{
		root:     absRoot,
		visited:  make(map[string]bool),
		recorded: make(map[string]bool),
		result:   &Result{},
	}
	if key, err := identity(absRoot); err == nil {
		state.visited[key] = true
	}

	s.logger.Debug(ctx, "Scan started", logging.Fields{"root": absRoot, "extensions": len(s.extensions)})

	if err := s.walk(ctx, state, absRoot); err != nil {
		return nil, err
	}

	sort.Slice(state.result.Entries, func(i, j int) bool {
		return state.result.Entries[i].AbsolutePath < state.result.Entries[j].AbsolutePath
	})

	s.logger.Info(ctx, "Scan completed", logging.Fields{
		"root":     absRoot,
		"files":    len(state.result.Entries),
		"dirs":     state.result.DirsScanned,
		"warnings": len(state.result.Warnings),
	})

	return state.result, nil
}

func (s *Scanner) walk(ctx context.Context, state *walkState, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.warn(ctx, state, dir, "cannot read directory", err)
		return nil
	}
	state.result.DirsScanned++

	for _, d := range entries {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		p := filepath.Join(dir, name)
		rel, err := filepath.Rel(state.root, p)
		if err != nil {
			s.warn(ctx, state, p, "cannot compute relative path", err)
			continue
		}

		// Stat follows symlinks; broken links end up here
		info, err := os.Stat(p)
		if err != nil {
			s.warn(ctx, state, p, "cannot stat entry", err)
			continue
		}

		isLink := d.Type()&os.ModeSymlink != 0

		if info.IsDir() {
			if s.exclude.Match(rel, true) || s.skipped(p) {
				continue
			}
			if !s.markVisited(ctx, state, p) {
				s.logger.Debug(ctx, "Directory already visited", logging.Fields{"path": p})
				continue
			}
			if err := s.walk(ctx, state, p); err != nil {
				return err
			}
			continue
		}

		if !info.Mode().IsRegular() || s.exclude.Match(rel, false) {
			continue
		}

		ext := NormalizeExtension(filepath.Ext(name))
		if !s.extensions[ext] {
			continue
		}

		// Hard-linked names are distinct files; only symlinks are deduplicated
		absPath := p
		if isLink {
			if !s.markVisited(ctx, state, p) {
				s.logger.Debug(ctx, "Symlink target already visited", logging.Fields{"path": p})
				continue
			}
			if real, err := filepath.EvalSymlinks(p); err == nil {
				absPath = real
			}
		} else if key, err := identity(p); err == nil {
			state.visited[key] = true
		}
		if state.recorded[absPath] {
			s.logger.Debug(ctx, "File already recorded", logging.Fields{"path": p})
			continue
		}
		state.recorded[absPath] = true

		state.result.Entries = append(state.result.Entries, models.FileEntry{
			AbsolutePath: absPath,
			RelativePath: rel,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			Kind:         models.KindForExt(ext),
		})
	}

	return nil
}

// markVisited records the identity of path and reports whether it was new
func (s *Scanner) markVisited(ctx context.Context, state *walkState, path string) bool {
	key, err := identity(path)
	if err != nil {
		s.warn(ctx, state, path, "cannot resolve identity", err)
		return false
	}
	if state.visited[key] {
		return false
	}
	state.visited[key] = true
	return true
}

func (s *Scanner) skipped(path string) bool {
	for _, dir := range s.skipDirs {
		if platform.IsWithin(dir, path) {
			return true
		}
	}
	return false
}

func (s *Scanner) warn(ctx context.Context, state *walkState, path, msg string, err error) {
	state.result.Warnings = append(state.result.Warnings, fmt.Sprintf("%s: %s: %v", path, msg, err))
	s.logger.Warn(ctx, "Scan entry skipped", logging.Fields{"path": path, "reason": msg, "error": err.Error()})
}

func inodeKey(dev, ino uint64) string {
	return strconv.FormatUint(dev, 10) + ":" + strconv.FormatUint(ino, 10)
}
