package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/preview"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
	errors []string
}

// JSONOperationData represents one planned or executed operation
type JSONOperationData struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	LinkMode    string `json:"link_mode"`
	Size        int64  `json:"size"`
	Status      string `json:"status,omitempty"`
	Kind        string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
	FellBack    bool   `json:"fell_back,omitempty"`
}

// JSONFolderData represents the statistics of one destination folder or type group
type JSONFolderData struct {
	Name           string `json:"name"`
	Count          int    `json:"count"`
	SourceBytes    int64  `json:"source_bytes"`
	EstimatedBytes int64  `json:"estimated_bytes,omitempty"`
}

// JSONPreviewData represents a dry-run preview
type JSONPreviewData struct {
	DryRun         bool                `json:"dry_run"`
	OutputRoot     string              `json:"output_root"`
	Mode           string              `json:"mode"`
	LinkMode       string              `json:"link_mode"`
	TotalBytes     int64               `json:"total_source_bytes"`
	EstimatedBytes int64               `json:"estimated_bytes"`
	Folders        []JSONFolderData    `json:"folders"`
	Groups         []JSONFolderData    `json:"groups"`
	Extensions     map[string]int      `json:"extensions"`
	Operations     []JSONOperationData `json:"operations"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	Operations  int   `json:"operations"`
	Succeeded   int   `json:"succeeded"`
	Failed      int   `json:"failed"`
	FellBack    int   `json:"fell_back"`
	DirsCreated int   `json:"dirs_created"`
	BytesCopied int64 `json:"bytes_copied"`
}

// JSONReportData represents the final report data
type JSONReportData struct {
	RunID      string              `json:"run_id"`
	Status     string              `json:"status"`
	InputPath  string              `json:"input_path"`
	OutputPath string              `json:"output_path"`
	Mode       string              `json:"mode"`
	LinkMode   string              `json:"link_mode"`
	Duration   string              `json:"duration"`
	DurationMs int64               `json:"duration_ms"`
	Stats      JSONStatsData       `json:"stats"`
	Operations []JSONOperationData `json:"operations"`
	Warnings   []string            `json:"warnings,omitempty"`
	Errors     []string            `json:"errors,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter writing to w
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONFormatter{writer: w}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, totalOps int, totalBytes int64) error {
	if writer != nil {
		f.writer = writer
	}
	return nil
}

// Progress is a no-op: JSON output is a single document written at the end
// to keep it parseable
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Preview writes the dry-run preview as JSON
func (f *JSONFormatter) Preview(p *preview.Preview) error {
	data := JSONPreviewData{
		DryRun:         true,
		OutputRoot:     p.OutputRoot,
		Mode:           string(p.Mode),
		LinkMode:       string(p.LinkMode),
		TotalBytes:     p.TotalSourceBytes,
		EstimatedBytes: p.EstimatedBytes,
		Extensions:     make(map[string]int, len(p.Extensions)),
		Operations:     make([]JSONOperationData, 0, len(p.Operations)),
	}
	for _, folder := range p.Folders {
		data.Folders = append(data.Folders, JSONFolderData{
			Name:           folder.Folder,
			Count:          folder.Count,
			SourceBytes:    folder.SourceBytes,
			EstimatedBytes: folder.EstimatedBytes,
		})
	}
	for _, group := range p.Groups {
		data.Groups = append(data.Groups, JSONFolderData{
			Name:        group.Group,
			Count:       group.Count,
			SourceBytes: group.Bytes,
		})
	}
	for _, ext := range p.Extensions {
		data.Extensions[ext.Extension] = ext.Count
	}
	for _, op := range p.Operations {
		data.Operations = append(data.Operations, operationData(op))
	}
	return f.encode(data)
}

// Complete writes the run report as JSON
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	data := JSONReportData{
		RunID:      report.RunID,
		Status:     string(report.Status),
		InputPath:  report.InputPath,
		OutputPath: report.OutputPath,
		Mode:       string(report.Mode),
		LinkMode:   string(report.LinkMode),
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			Operations:  report.Stats.Operations,
			Succeeded:   report.Stats.Succeeded,
			Failed:      report.Stats.Failed,
			FellBack:    report.Stats.FellBack,
			DirsCreated: report.Stats.DirsCreated,
			BytesCopied: report.Stats.BytesCopied,
		},
		Operations: make([]JSONOperationData, 0, len(report.Outcomes)),
		Warnings:   report.Warnings,
		Errors:     f.errors,
	}
	for _, o := range report.Outcomes {
		op := operationData(o.Operation)
		op.Status = string(o.Status)
		op.Kind = string(o.Kind)
		op.Error = o.Reason
		op.FellBack = o.FellBack
		data.Operations = append(data.Operations, op)
	}
	return f.encode(data)
}

// Error records a fatal error. When no report follows, the error is written
// as a standalone document.
func (f *JSONFormatter) Error(err error) error {
	f.errors = append(f.errors, err.Error())
	return f.encode(map[string]string{"error": err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func operationData(op models.Operation) JSONOperationData {
	return JSONOperationData{
		Source:      op.SourcePath,
		Destination: op.DestinationPath,
		LinkMode:    string(op.LinkMode),
		Size:        op.Size,
	}
}
