package models

import (
	"path/filepath"
	"strings"
	"time"
)

// ContentKind selects which classification path applies to a file
type ContentKind string

const (
	// KindText is a text-bearing file (plain text, documents, spreadsheets...)
	KindText ContentKind = "text"
	// KindImage is an image file
	KindImage ContentKind = "image"
	// KindUnknown is anything the classifiers have no variant for
	KindUnknown ContentKind = "unknown"
)

// FileEntry represents one discovered input file
type FileEntry struct {
	// AbsolutePath is the full path on the filesystem, unique within a run
	AbsolutePath string

	// RelativePath is the path relative to the input root
	RelativePath string

	// Size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// Kind determines which classifier variant is invoked
	Kind ContentKind
}

// Metadata is the classification result for one FileEntry
type Metadata struct {
	// Category is the top-level destination folder in content mode
	Category string `json:"category"`

	// Description is a short human readable summary of the content
	Description string `json:"description"`

	// SuggestedName is the proposed file name, without extension.
	// It may collide across files.
	SuggestedName string `json:"filename"`
}

// UnclassifiedCategory is the bucket used when classification fails
const UnclassifiedCategory = "Unclassified"

// Unclassified returns the fallback metadata for a file that could not be classified
func Unclassified(entry FileEntry) Metadata {
	return Metadata{
		Category:      UnclassifiedCategory,
		SuggestedName: entry.Stem(),
	}
}

// Name returns the base name of the file
func (e FileEntry) Name() string {
	return filepath.Base(e.AbsolutePath)
}

// Ext returns the extension of the file including the dot, as found on disk
func (e FileEntry) Ext() string {
	name := e.Name()
	// a leading dot names the file, it does not start an extension
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i:]
	}
	return ""
}

// Stem returns the base name without its extension
func (e FileEntry) Stem() string {
	name := e.Name()
	return name[:len(name)-len(e.Ext())]
}
