package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/preview"
)

func samplePlan() *models.Plan {
	return &models.Plan{
		OutputRoot: "/out",
		Mode:       models.ModeType,
		LinkMode:   models.LinkCopy,
		Operations: []models.Operation{
			{SourcePath: "/in/a.txt", DestinationPath: "/out/Text/a.txt", LinkMode: models.LinkCopy, Folder: "Text", Group: "Text", Size: 1000},
			{SourcePath: "/in/b.png", DestinationPath: "/out/Images/b.png", LinkMode: models.LinkCopy, Folder: "Images", Group: "Images", Size: 2000},
		},
		Folders: map[string]models.FolderStats{
			"Text":   {Count: 1, Bytes: 1000},
			"Images": {Count: 1, Bytes: 2000},
		},
		Groups: map[string]models.FolderStats{
			"Text":   {Count: 1, Bytes: 1000},
			"Images": {Count: 1, Bytes: 2000},
		},
		Extensions: map[string]int{".txt": 1, ".png": 1},
		TotalBytes: 3000,
	}
}

func sampleReport() *models.RunReport {
	plan := samplePlan()
	report := &models.RunReport{
		RunID:      "run-1",
		OutputPath: "/out",
		Mode:       models.ModeType,
		LinkMode:   models.LinkCopy,
		StartTime:  time.Now().Add(-time.Second),
		Warnings:   []string{"cannot classify /in/c.txt"},
		Outcomes: []models.Outcome{
			{Operation: plan.Operations[0], Status: models.OutcomeSuccess},
			{Operation: plan.Operations[1], Status: models.OutcomeFailed, Kind: models.ErrKindIO, Reason: "disk full"},
		},
	}
	report.Finalize(false)
	return report
}

func TestNewSelectsFormatter(t *testing.T) {
	var buf bytes.Buffer
	if got := New("json", &buf, true).Name(); got != "json" {
		t.Errorf("New(json) = %s", got)
	}
	// a buffer is never a terminal, so no progress bar
	if got := New("human", &buf, true).Name(); got != "human" {
		t.Errorf("New(human) = %s", got)
	}
}

func TestHumanFormatterPreview(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter(&buf)
	if err := f.Preview(preview.Simulate(samplePlan())); err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Dry run: 2 files", "├── Images/", "└── Text/", "a.txt", "Link mode: copy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// not a terminal: no escape sequences
	if strings.Contains(out, "\x1b[") {
		t.Error("output should not be styled when not a terminal")
	}
}

func TestHumanFormatterRun(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter(&buf)
	report := sampleReport()

	f.Start(nil, 2, 3000)
	f.Progress(ProgressUpdate{Type: UpdateOpComplete, Index: 1, Destination: "/out/Text/a.txt"})
	f.Progress(ProgressUpdate{Type: UpdateOpError, Index: 2, Destination: "/out/Images/b.png", Error: errors.New("disk full")})
	if err := f.Complete(report); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Organizing 2 files",
		"[1/2] ✓ /out/Text/a.txt",
		"[2/2] ✗ /out/Images/b.png: disk full",
		"Failed:         1",
		"Status: partial",
		"cannot classify /in/c.txt",
		"/in/b.png: [io] disk full",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJSONFormatterComplete(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)
	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	var data JSONReportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if data.Status != "partial" || data.Stats.Failed != 1 || data.Stats.Succeeded != 1 {
		t.Errorf("report = %+v", data)
	}
	if len(data.Operations) != 2 || data.Operations[1].Kind != "io" {
		t.Errorf("operations = %+v", data.Operations)
	}
	if data.Stats.BytesCopied != 1000 {
		t.Errorf("BytesCopied = %d, want 1000", data.Stats.BytesCopied)
	}
}

func TestJSONFormatterPreview(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)
	if err := f.Preview(preview.Simulate(samplePlan())); err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	var data JSONPreviewData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !data.DryRun || data.EstimatedBytes != 3000 || len(data.Operations) != 2 {
		t.Errorf("preview = %+v", data)
	}
	if data.Extensions[".png"] != 1 {
		t.Errorf("Extensions = %v", data.Extensions)
	}
}

func TestProgressFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter(&buf)

	f.Start(nil, 2, 3000)
	f.Progress(ProgressUpdate{Type: UpdateOpStart, Index: 1, Destination: "/out/Text/a.txt"})
	f.Progress(ProgressUpdate{Type: UpdateOpComplete, Index: 1})
	f.Progress(ProgressUpdate{Type: UpdateOpError, Index: 2})
	if err := f.Complete(sampleReport()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "2 / 2") {
		t.Errorf("progress bar should reach 2 / 2:\n%s", out)
	}
	if !strings.Contains(out, "Status: partial") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestShortName(t *testing.T) {
	if got := shortName("/out/Text/a.txt"); got != "a.txt" {
		t.Errorf("shortName() = %s", got)
	}
	long := "/out/" + strings.Repeat("x", 60) + ".txt"
	if got := shortName(long); len([]rune(got)) != maxNameWidth || !strings.HasPrefix(got, "...") {
		t.Errorf("shortName() = %s", got)
	}
}
