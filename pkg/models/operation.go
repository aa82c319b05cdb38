package models

import (
	"fmt"
	"time"
)

// OrganizeMode defines how destination paths are derived
type OrganizeMode string

const (
	// ModeContent uses classifier metadata: output/<category>/<name>
	ModeContent OrganizeMode = "content"
	// ModeType groups by file extension: output/<group>/<file>
	ModeType OrganizeMode = "type"
	// ModeDate groups by modification time: output/<year>/<month>/<file>
	ModeDate OrganizeMode = "date"
	// ModeTest runs the whole pipeline with the simulated classifier and the type layout
	ModeTest OrganizeMode = "test"
)

// LinkMode defines how a file is placed at its destination
type LinkMode string

const (
	// LinkHard creates a new directory entry for the same file data
	LinkHard LinkMode = "hardlink"
	// LinkSymbolic creates a path reference to the absolute source path
	LinkSymbolic LinkMode = "symlink"
	// LinkCopy duplicates the file bytes and timestamps
	LinkCopy LinkMode = "copy"
)

// ParseLinkMode accepts both the long names and the short CLI aliases
func ParseLinkMode(s string) (LinkMode, error) {
	switch s {
	case "hard", "hardlink":
		return LinkHard, nil
	case "soft", "sym", "symlink":
		return LinkSymbolic, nil
	case "copy":
		return LinkCopy, nil
	default:
		return "", fmt.Errorf("invalid link mode: %s (valid: hard, soft, copy)", s)
	}
}

// IsAlias reports whether the link mode creates an alias rather than a data copy
func (m LinkMode) IsAlias() bool {
	return m == LinkHard || m == LinkSymbolic
}

// Operation is one planned filesystem action
type Operation struct {
	// SourcePath is the absolute path of the input file
	SourcePath string

	// DestinationPath is absolute and located under the output root
	DestinationPath string

	// LinkMode is the placement strategy
	LinkMode LinkMode

	// Folder is the top-level destination folder, relative to the output root
	Folder string

	// Group is the type group of the source extension
	Group string

	// Size of the source file in bytes
	Size int64
}

// FolderStats aggregates operations per folder or type group
type FolderStats struct {
	Count int
	Bytes int64
}

// Plan is the ordered sequence of operations for one run
type Plan struct {
	OutputRoot string
	Mode       OrganizeMode
	LinkMode   LinkMode

	// Operations are ordered by source path
	Operations []Operation

	// Dirs is the minimal sorted set of distinct parent directories
	Dirs []string

	// Folders is keyed by the top-level destination folder
	Folders map[string]FolderStats

	// Groups is keyed by type group
	Groups map[string]FolderStats

	// Extensions counts operations per lowercased source extension
	Extensions map[string]int

	TotalBytes int64
}

// Len returns the number of operations in the plan
func (p *Plan) Len() int {
	return len(p.Operations)
}

// RunConfig is the resolved, immutable configuration of one run
type RunConfig struct {
	ID         string
	InputPath  string
	OutputPath string
	Mode       OrganizeMode
	LinkMode   LinkMode
	DryRun     bool
	Silent     bool
	LogPath    string

	MaxWorkers      int
	ClassifyTimeout time.Duration

	// Extensions is the supported set, lowercased with leading dot
	Extensions []string
	Exclude    []string

	AlignExisting  bool
	LinkFallback   bool
	Verify         bool  // re-read every copy and compare it with its source
	BandwidthLimit int64 // bytes per second, 0 = unlimited
	BufferSize     int

	CreatedAt time.Time
}

// Validate checks if the run configuration is valid
func (c RunConfig) Validate() error {
	if c.InputPath == "" {
		return &ValidationError{Field: "InputPath", Message: "input path is required"}
	}
	if c.OutputPath == "" {
		return &ValidationError{Field: "OutputPath", Message: "output path is required"}
	}
	switch c.Mode {
	case ModeContent, ModeType, ModeDate, ModeTest:
	default:
		return &ValidationError{Field: "Mode", Message: fmt.Sprintf("unknown mode %q", c.Mode)}
	}
	switch c.LinkMode {
	case LinkHard, LinkSymbolic, LinkCopy:
	default:
		return &ValidationError{Field: "LinkMode", Message: fmt.Sprintf("unknown link mode %q", c.LinkMode)}
	}
	if c.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if c.ClassifyTimeout <= 0 {
		return &ValidationError{Field: "ClassifyTimeout", Message: "classification timeout must be positive"}
	}
	if c.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
