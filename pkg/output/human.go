package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/preview"
)

var (
	dirStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorEnabled reports whether styled output goes to w. A non-empty
// NO_COLOR environment variable disables styling.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return IsTerminal(w)
}

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer   io.Writer
	colorize bool
	totalOps int
}

// NewHumanFormatter creates a new human-readable formatter writing to w
func NewHumanFormatter(w io.Writer) *HumanFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &HumanFormatter{writer: w, colorize: colorEnabled(w)}
}

func (f *HumanFormatter) style(s lipgloss.Style, text string) string {
	if !f.colorize {
		return text
	}
	return s.Render(text)
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, totalOps int, totalBytes int64) error {
	if writer != nil {
		f.writer = writer
	}
	f.totalOps = totalOps
	_, err := fmt.Fprintf(f.writer, "Organizing %d files (%s)\n", totalOps, humanize.Bytes(uint64(totalBytes)))
	return err
}

// Progress prints one line per finished operation
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	switch update.Type {
	case UpdateOpComplete:
		suffix := ""
		if update.FellBack {
			suffix = " (copied, link failed)"
		}
		fmt.Fprintf(f.writer, "[%d/%d] %s %s%s\n",
			update.Index, f.totalOps, f.style(successStyle, "✓"), update.Destination, suffix)

	case UpdateOpError:
		fmt.Fprintf(f.writer, "[%d/%d] %s %s: %v\n",
			update.Index, f.totalOps, f.style(errorStyle, "✗"), update.Destination, update.Error)

	case UpdateDirError:
		fmt.Fprintf(f.writer, "%s cannot create %s: %v\n",
			f.style(errorStyle, "✗"), update.Destination, update.Error)
	}
	return nil
}

// Preview renders the simulated tree followed by the summary tables
func (f *HumanFormatter) Preview(p *preview.Preview) error {
	fmt.Fprintf(f.writer, "Dry run: %d files would be organized into %s\n\n", p.Len(), p.OutputRoot)

	var style preview.StyleFunc
	if f.colorize {
		style = func(s string) string { return dirStyle.Render(s) }
	}
	if err := p.RenderTree(f.writer, style); err != nil {
		return err
	}
	fmt.Fprintln(f.writer)
	return p.RenderSummary(f.writer)
}

// Complete displays the run summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	return writeSummary(f.writer, report)
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	_, werr := fmt.Fprintf(f.writer, "Error: %v\n", err)
	return werr
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary is shared by the human and progress formatters
func writeSummary(w io.Writer, report *models.RunReport) error {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Run %s completed in %s\n", report.RunID, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Mode:             %s (%s)\n", report.Mode, report.LinkMode)
	fmt.Fprintf(w, "  Output:           %s\n", report.OutputPath)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Operations:\n")
	fmt.Fprintf(w, "    Planned:        %d\n", report.Stats.Operations)
	fmt.Fprintf(w, "    Succeeded:      %d\n", report.Stats.Succeeded)
	fmt.Fprintf(w, "    Failed:         %d\n", report.Stats.Failed)
	if report.Stats.FellBack > 0 {
		fmt.Fprintf(w, "    Copied instead: %d\n", report.Stats.FellBack)
	}
	fmt.Fprintf(w, "    Dirs created:   %d\n", report.Stats.DirsCreated)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Data copied:      %s\n", humanize.Bytes(uint64(report.Stats.BytesCopied)))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}

	failures := report.Failures()
	if len(failures) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, o := range failures {
			fmt.Fprintf(w, "  %s: [%s] %s\n", o.Operation.SourcePath, o.Kind, o.Reason)
		}
	}
	return nil
}
