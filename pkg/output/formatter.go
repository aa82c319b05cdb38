package output

import (
	"io"

	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/preview"
)

// Progress update types emitted by the executor
const (
	UpdateDirError   = "dir_error"
	UpdateOpStart    = "op_start"
	UpdateOpBytes    = "op_bytes"
	UpdateOpComplete = "op_complete"
	UpdateOpError    = "op_error"
)

// ProgressUpdate represents a progress notification during execution
type ProgressUpdate struct {
	Type        string
	Source      string
	Destination string
	Bytes       int64 // bytes written so far (op_bytes) or copied in total (op_complete)
	TotalBytes  int64
	Index       int // 1-based position in the plan
	FellBack    bool
	Error       error
}

// Formatter defines the interface for output formatting.
// Implementations include human-readable, JSON and progress bar formatters.
type Formatter interface {
	// Start initializes the formatter for an execution of totalOps operations
	Start(writer io.Writer, totalOps int, totalBytes int64) error

	// Progress reports progress during execution
	Progress(update ProgressUpdate) error

	// Preview renders a dry-run preview
	Preview(p *preview.Preview) error

	// Complete finalizes output and displays the run summary
	Complete(report *models.RunReport) error

	// Error reports a fatal error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for a configured output format. Progress bars
// are used for human output only when w is a terminal.
func New(format string, w io.Writer, progress bool) Formatter {
	if format == "json" {
		return NewJSONFormatter(w)
	}
	if progress && IsTerminal(w) {
		return NewProgressFormatter(w)
	}
	return NewHumanFormatter(w)
}

// NullFormatter discards every event
type NullFormatter struct{}

func (NullFormatter) Start(io.Writer, int, int64) error { return nil }
func (NullFormatter) Progress(ProgressUpdate) error     { return nil }
func (NullFormatter) Preview(*preview.Preview) error    { return nil }
func (NullFormatter) Complete(*models.RunReport) error  { return nil }
func (NullFormatter) Error(error) error                 { return nil }
func (NullFormatter) Name() string                      { return "null" }
