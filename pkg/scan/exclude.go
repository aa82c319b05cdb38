package scan

import (
	"path"
	"path/filepath"
	"strings"
)

// excludeRule is one pre-normalized exclude pattern
type excludeRule struct {
	pattern  string
	dirOnly  bool // "node_modules/"
	anyDepth bool // "**/cache"
	hasSlash bool // "build/*.o"
}

// excludeMatcher matches relative paths against gitignore-like patterns:
//   - *.tmp matches the base name at any depth
//   - .git/ matches a directory of that name at any depth, and everything below it
//   - **/x matches x at any depth
//   - build/*.o matches against the full relative path
type excludeMatcher struct {
	rules []excludeRule
}

func newExcludeMatcher(patterns []string) *excludeMatcher {
	m := &excludeMatcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		if p == "" {
			continue
		}
		r := excludeRule{}
		if strings.HasSuffix(p, "/") {
			r.dirOnly = true
			p = strings.TrimSuffix(p, "/")
		}
		if strings.HasPrefix(p, "**/") {
			r.anyDepth = true
			p = strings.TrimPrefix(p, "**/")
		}
		r.hasSlash = strings.Contains(p, "/")
		r.pattern = p
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether relPath (slash or OS separated, relative to the
// scan root) is excluded
func (m *excludeMatcher) Match(relPath string, isDir bool) bool {
	if len(m.rules) == 0 {
		return false
	}
	rel := filepath.ToSlash(relPath)
	base := path.Base(rel)

	for _, r := range m.rules {
		switch {
		case r.dirOnly:
			// a directory rule also covers files below the directory
			if isDir && globMatch(r.pattern, base) {
				return true
			}
			if componentMatch(path.Dir(rel), r.pattern) {
				return true
			}
		case r.hasSlash:
			if suffixMatch(rel, r.pattern) {
				return true
			}
		case r.anyDepth:
			if globMatch(r.pattern, base) || componentMatch(rel, r.pattern) {
				return true
			}
		default:
			if globMatch(r.pattern, base) {
				return true
			}
		}
	}
	return false
}

func globMatch(pattern, name string) bool {
	matched, _ := path.Match(pattern, name)
	return matched
}

// componentMatch checks if any component of a slash path matches pattern
func componentMatch(rel, pattern string) bool {
	if rel == "." || rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if globMatch(pattern, part) {
			return true
		}
	}
	return false
}

// suffixMatch matches pattern against rel and every trailing run of its components
func suffixMatch(rel, pattern string) bool {
	for {
		if globMatch(pattern, rel) {
			return true
		}
		i := strings.IndexByte(rel, '/')
		if i < 0 {
			return false
		}
		rel = rel[i+1:]
	}
}
