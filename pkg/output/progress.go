package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/preview"
)

const (
	defaultTermWidth = 120
	maxNameWidth     = 40
)

var barTemplate pb.ProgressBarTemplate = `{{counters . }} {{bar . "[" "█" "█" "░" "]"}} {{percent . }} {{etime . }} {{string . "file"}}`

// ProgressFormatter formats output with a progress bar
type ProgressFormatter struct {
	mu     sync.Mutex
	writer io.Writer
	bar    *pb.ProgressBar
	width  int
}

// NewProgressFormatter creates a new progress bar formatter writing to w
func NewProgressFormatter(w io.Writer) *ProgressFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &ProgressFormatter{writer: w}
}

// termWidth detects the terminal width to prevent line wrapping,
// defaulting to 120 for pipes and redirects
func termWidth(w io.Writer) int {
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTermWidth
}

// Start initializes the bar
func (f *ProgressFormatter) Start(writer io.Writer, totalOps int, totalBytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer != nil {
		f.writer = writer
	}
	f.width = termWidth(f.writer)

	f.bar = barTemplate.New(totalOps)
	f.bar.SetWriter(f.writer)
	f.bar.SetWidth(f.width)
	f.bar.Set("file", "")
	f.bar.Start()
	return nil
}

// Progress advances the bar and shows the current file
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case UpdateOpStart:
		f.bar.Set("file", shortName(update.Destination))
	case UpdateOpComplete, UpdateOpError:
		f.bar.Increment()
	}
	return nil
}

// shortName truncates a destination to its base name for display
func shortName(path string) string {
	name := []rune(filepath.Base(path))
	if len(name) > maxNameWidth {
		return "..." + string(name[len(name)-maxNameWidth+3:])
	}
	return string(name)
}

// Preview renders like the human formatter: there is nothing to track
func (f *ProgressFormatter) Preview(p *preview.Preview) error {
	return NewHumanFormatter(f.writer).Preview(p)
}

// Complete stops the bar and displays the summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.finish()
	return writeSummary(f.writer, report)
}

// Error stops the bar and reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.finish()
	_, werr := fmt.Fprintf(f.writer, "\nError: %v\n", err)
	return werr
}

func (f *ProgressFormatter) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bar != nil && f.bar.IsStarted() {
		f.bar.Set("file", "")
		f.bar.Finish()
	}
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
