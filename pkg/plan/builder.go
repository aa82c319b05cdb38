package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sdejongh/filenorris/pkg/models"
)

// maxOriginalStemBytes caps original stems once a collision suffix is added
const maxOriginalStemBytes = 200

// Lookup holds classification results keyed by absolute source path
type Lookup map[string]models.Metadata

// Get returns the metadata of an entry, or the unclassified fallback
func (l Lookup) Get(entry models.FileEntry) models.Metadata {
	if md, ok := l[entry.AbsolutePath]; ok {
		return md
	}
	return models.Unclassified(entry)
}

// Options configures a plan build
type Options struct {
	Mode       models.OrganizeMode
	OutputRoot string
	LinkMode   models.LinkMode

	// ExistingDirs lists directories already present under the output
	// root, relative to it. Only read when AlignExisting is set.
	ExistingDirs  []string
	AlignExisting bool

	// Location is used to derive date folders; nil means time.Local
	Location *time.Location
}

// builder holds the single-threaded collision state of one build
type builder struct {
	opts    Options
	root    string
	claimed map[string]bool
	lower   cases.Caser

	// next remembers the next suffix to try per base destination
	next map[string]int
}

// Build computes the plan for the given entries. Entries are processed in
// lexicographic order of their source path so that identical inputs always
// yield identical plans. Individual files never fail the build.
func Build(entries []models.FileEntry, lookup Lookup, opts Options) (*models.Plan, error) {
	root, err := resolveRoot(opts.OutputRoot)
	if err != nil {
		return nil, &models.PlanError{OutputRoot: opts.OutputRoot, Err: err}
	}

	sorted := make([]models.FileEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AbsolutePath < sorted[j].AbsolutePath
	})

	b := &builder{
		opts:    opts,
		root:    root,
		claimed: make(map[string]bool, len(sorted)),
		lower:   cases.Lower(language.Und),
		next:    make(map[string]int),
	}

	p := &models.Plan{
		OutputRoot: root,
		Mode:       opts.Mode,
		LinkMode:   opts.LinkMode,
		Operations: make([]models.Operation, 0, len(sorted)),
		Folders:    make(map[string]models.FolderStats),
		Groups:     make(map[string]models.FolderStats),
		Extensions: make(map[string]int),
	}
	dirs := make(map[string]bool)

	for _, entry := range sorted {
		folder, stem, ext, limit := b.layout(entry, lookup)
		if opts.AlignExisting {
			folder = AlignFolder(folder, opts.ExistingDirs)
		}

		dest := b.claim(filepath.Join(root, folder), stem, ext, limit)
		op := models.Operation{
			SourcePath:      entry.AbsolutePath,
			DestinationPath: dest,
			LinkMode:        opts.LinkMode,
			Folder:          topLevel(folder),
			Group:           models.TypeGroup(entry.Ext()),
			Size:            entry.Size,
		}
		p.Operations = append(p.Operations, op)
		dirs[filepath.Dir(dest)] = true

		addStats(p.Folders, op.Folder, op.Size)
		addStats(p.Groups, op.Group, op.Size)
		p.Extensions[extensionKey(entry.Ext())]++
		p.TotalBytes += op.Size
	}

	p.Dirs = make([]string, 0, len(dirs))
	for d := range dirs {
		p.Dirs = append(p.Dirs, d)
	}
	sort.Strings(p.Dirs)

	return p, nil
}

func resolveRoot(outputRoot string) (string, error) {
	if strings.TrimSpace(outputRoot) == "" {
		return "", errors.New("output root is empty")
	}
	abs, err := filepath.Abs(outputRoot)
	if err != nil {
		return "", fmt.Errorf("resolve output root: %w", err)
	}
	return abs, nil
}

// layout returns the relative folder and the name parts of an entry's
// destination, plus the byte limit applied to the stem on collision
func (b *builder) layout(entry models.FileEntry, lookup Lookup) (folder, stem, ext string, limit int) {
	switch b.opts.Mode {
	case models.ModeContent:
		md := lookup.Get(entry)
		raw := md.SuggestedName
		if strings.TrimSpace(raw) == "" {
			raw = md.Description
		}
		if strings.TrimSpace(raw) == "" {
			raw = entry.Stem()
		}
		return SanitizeFolder(md.Category), SanitizeStem(raw), strings.ToLower(entry.Ext()), MaxNameBytes

	case models.ModeDate:
		return DateFolder(entry.ModTime, b.opts.Location), entry.Stem(), entry.Ext(), maxOriginalStemBytes

	case models.ModeTest:
		// classifier category, original filename
		folder = models.TypeGroup(entry.Ext())
		if md, ok := lookup[entry.AbsolutePath]; ok {
			folder = SanitizeFolder(md.Category)
		}
		return folder, entry.Stem(), entry.Ext(), maxOriginalStemBytes

	default:
		return models.TypeGroup(entry.Ext()), entry.Stem(), entry.Ext(), maxOriginalStemBytes
	}
}

// DateFolder returns <YYYY>/<MM-MonthName> for t in loc (time.Local when nil)
func DateFolder(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return filepath.Join(strconv.Itoa(t.Year()), fmt.Sprintf("%02d-%s", int(t.Month()), t.Month()))
}

// claim returns the first unclaimed destination for dir/stem+ext, appending
// _2, _3... before the extension. The counter is unbounded; the stem is
// shortened when stem plus suffix would exceed limit.
func (b *builder) claim(dir, stem, ext string, limit int) string {
	candidate := filepath.Join(dir, stem+ext)
	base := b.key(candidate)
	n := b.next[base]
	if n < 2 {
		n = 2
	}
	for b.claimed[b.key(candidate)] {
		suffix := "_" + strconv.Itoa(n)
		s := stem
		if len(s)+len(suffix) > limit {
			s = truncateBytes(s, limit-len(suffix))
		}
		candidate = filepath.Join(dir, s+suffix+ext)
		n++
	}
	b.next[base] = n
	b.claimed[b.key(candidate)] = true
	return candidate
}

// key lowercases path so names differing only in letter case collide, as
// they do on case-insensitive volumes. No volume equates ß with ss, so this
// is a per-rune lowercase rather than a full case fold.
func (b *builder) key(path string) string {
	return b.lower.String(path)
}

func topLevel(folder string) string {
	folder = filepath.ToSlash(folder)
	if i := strings.IndexByte(folder, '/'); i >= 0 {
		return folder[:i]
	}
	return folder
}

func extensionKey(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return strings.ToLower(ext)
}

func addStats(m map[string]models.FolderStats, key string, size int64) {
	s := m[key]
	s.Count++
	s.Bytes += size
	m[key] = s
}
