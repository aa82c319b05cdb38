package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/filenorris/pkg/models"
)

const outRoot = "/data/output"

func entry(path string, size int64) models.FileEntry {
	return models.FileEntry{
		AbsolutePath: path,
		RelativePath: strings.TrimPrefix(path, "/data/input/"),
		Size:         size,
		Kind:         models.KindForExt(filepath.Ext(path)),
	}
}

func contentOptions() Options {
	return Options{Mode: models.ModeContent, OutputRoot: outRoot, LinkMode: models.LinkHard}
}

func destinations(p *models.Plan) []string {
	out := make([]string, len(p.Operations))
	for i, op := range p.Operations {
		out[i] = filepath.ToSlash(op.DestinationPath)
	}
	return out
}

func TestBuild_SummaryCollision(t *testing.T) {
	entries := []models.FileEntry{
		entry("/data/input/report.txt", 10),
		entry("/data/input/notes/report.txt", 20),
	}
	lookup := Lookup{}
	for _, e := range entries {
		lookup[e.AbsolutePath] = models.Metadata{Category: "Work", SuggestedName: "Summary"}
	}

	p, err := Build(entries, lookup, contentOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// notes/report.txt sorts before report.txt
	want := []string{"/data/output/Work/Summary.txt", "/data/output/Work/Summary_2.txt"}
	if got := destinations(p); !reflect.DeepEqual(got, want) {
		t.Errorf("destinations = %v, want %v", got, want)
	}
	if p.Operations[0].SourcePath != "/data/input/notes/report.txt" {
		t.Errorf("first source = %s", p.Operations[0].SourcePath)
	}
	if got := p.Folders["Work"]; got.Count != 2 || got.Bytes != 30 {
		t.Errorf("Folders[Work] = %+v", got)
	}
	if !reflect.DeepEqual(p.Dirs, []string{filepath.FromSlash("/data/output/Work")}) {
		t.Errorf("Dirs = %v", p.Dirs)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	entries := []models.FileEntry{
		entry("/data/input/c.txt", 3),
		entry("/data/input/a.txt", 1),
		entry("/data/input/b/a.txt", 2),
		entry("/data/input/A.TXT", 4),
	}
	reversed := []models.FileEntry{entries[3], entries[2], entries[1], entries[0]}
	lookup := Lookup{}
	for _, e := range entries {
		lookup[e.AbsolutePath] = models.Metadata{Category: "docs", SuggestedName: "same"}
	}

	first, err := Build(entries, lookup, contentOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := Build(reversed, lookup, contentOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("plans differ:\n%v\n%v", destinations(first), destinations(second))
	}
}

func TestBuild_NoOverwrite(t *testing.T) {
	var entries []models.FileEntry
	lookup := Lookup{}
	for i := 0; i < 1500; i++ {
		e := entry(fmt.Sprintf("/data/input/dir%04d/scan.PDF", i), 1)
		entries = append(entries, e)
		lookup[e.AbsolutePath] = models.Metadata{Category: "Scans", SuggestedName: "scanned invoice"}
	}

	p, err := Build(entries, lookup, contentOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	seen := make(map[string]bool)
	for _, d := range destinations(p) {
		if seen[d] {
			t.Fatalf("duplicate destination %s", d)
		}
		seen[d] = true
		if !strings.HasSuffix(d, ".pdf") {
			t.Errorf("extension not preserved: %s", d)
		}
		if !strings.HasPrefix(filepath.Base(d), "scanned_invoice") {
			t.Errorf("unexpected name %s", d)
		}
	}
	if !seen["/data/output/Scans/scanned_invoice_1500.pdf"] {
		t.Error("suffix counter should reach 1500")
	}
}

func TestBuild_CaseInsensitiveCollision(t *testing.T) {
	entries := []models.FileEntry{
		entry("/data/input/a/Photo.jpg", 1),
		entry("/data/input/b/photo.jpg", 1),
	}
	p, err := Build(entries, nil, Options{Mode: models.ModeType, OutputRoot: outRoot, LinkMode: models.LinkCopy})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{"/data/output/Images/Photo.jpg", "/data/output/Images/photo_2.jpg"}
	if got := destinations(p); !reflect.DeepEqual(got, want) {
		t.Errorf("destinations = %v, want %v", got, want)
	}
}

func TestBuild_CaseKeyDoesNotExpandLetters(t *testing.T) {
	entries := []models.FileEntry{
		entry("/data/input/a/Straße.txt", 1),
		entry("/data/input/b/Strasse.txt", 1),
	}
	p, err := Build(entries, nil, Options{Mode: models.ModeType, OutputRoot: outRoot, LinkMode: models.LinkCopy})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{"/data/output/Text/Straße.txt", "/data/output/Text/Strasse.txt"}
	if got := destinations(p); !reflect.DeepEqual(got, want) {
		t.Errorf("destinations = %v, want %v", got, want)
	}
}

func TestBuild_CollisionSuffixRespectsLengthCap(t *testing.T) {
	long := strings.Repeat("x", 60)
	entries := []models.FileEntry{entry("/data/input/1.txt", 1), entry("/data/input/2.txt", 1)}
	lookup := Lookup{
		entries[0].AbsolutePath: {Category: "Misc", SuggestedName: long},
		entries[1].AbsolutePath: {Category: "Misc", SuggestedName: long},
	}
	p, err := Build(entries, lookup, contentOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second := filepath.Base(p.Operations[1].DestinationPath)
	stem := strings.TrimSuffix(second, ".txt")
	if len(stem) != MaxNameBytes || !strings.HasSuffix(stem, "_2") {
		t.Errorf("second name = %s (%d bytes)", second, len(stem))
	}
}

func TestBuild_Modes(t *testing.T) {
	mtime := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	entries := []models.FileEntry{
		{AbsolutePath: "/data/input/pic.png", Size: 5, ModTime: mtime},
		{AbsolutePath: "/data/input/sheet.XLSX", Size: 6, ModTime: mtime},
		{AbsolutePath: "/data/input/tool.bin", Size: 7, ModTime: mtime},
	}

	t.Run("Type", func(t *testing.T) {
		p, err := Build(entries, nil, Options{Mode: models.ModeType, OutputRoot: outRoot})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		want := []string{
			"/data/output/Images/pic.png",
			"/data/output/Spreadsheets/sheet.XLSX",
			"/data/output/Other/tool.bin",
		}
		if got := destinations(p); !reflect.DeepEqual(got, want) {
			t.Errorf("destinations = %v, want %v", got, want)
		}
		if p.Extensions[".xlsx"] != 1 || p.Groups[models.GroupOther].Bytes != 7 {
			t.Errorf("stats = %v %v", p.Extensions, p.Groups)
		}
	})

	t.Run("Test", func(t *testing.T) {
		p, err := Build(entries, nil, Options{Mode: models.ModeTest, OutputRoot: outRoot})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got := destinations(p)[0]; got != "/data/output/Images/pic.png" {
			t.Errorf("test mode destination = %s", got)
		}
	})

	t.Run("TestUsesClassifierCategory", func(t *testing.T) {
		lookup := Lookup{entries[0].AbsolutePath: {Category: "receipts", SuggestedName: "ignored"}}
		p, err := Build(entries[:1], lookup, Options{Mode: models.ModeTest, OutputRoot: outRoot})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got := destinations(p)[0]; got != "/data/output/Receipts/pic.png" {
			t.Errorf("test mode destination = %s, want classifier folder and original name", got)
		}
	})

	t.Run("Date", func(t *testing.T) {
		p, err := Build(entries, nil, Options{Mode: models.ModeDate, OutputRoot: outRoot, Location: time.UTC})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got := destinations(p)[0]; got != "/data/output/2024/03-March/pic.png" {
			t.Errorf("date destination = %s", got)
		}
		if p.Operations[0].Folder != "2024" {
			t.Errorf("Folder = %s, want 2024", p.Operations[0].Folder)
		}
		if len(p.Dirs) != 1 {
			t.Errorf("Dirs = %v, want a single month dir", p.Dirs)
		}
	})

	t.Run("ContentMissingMetadata", func(t *testing.T) {
		p, err := Build(entries[:1], Lookup{}, contentOptions())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got := destinations(p)[0]; got != "/data/output/Unclassified/pic.png" {
			t.Errorf("destination = %s", got)
		}
	})
}

func TestBuild_AlignExisting(t *testing.T) {
	entries := []models.FileEntry{entry("/data/input/a.png", 1), entry("/data/input/b.txt", 1)}
	lookup := Lookup{
		entries[0].AbsolutePath: {Category: "photos", SuggestedName: "beach"},
		entries[1].AbsolutePath: {Category: "Recipes", SuggestedName: "cake"},
	}
	opts := contentOptions()
	opts.AlignExisting = true
	opts.ExistingDirs = []string{"Images", "Finance"}

	p, err := Build(entries, lookup, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := []string{"/data/output/Images/beach.png", "/data/output/Recipes/cake.txt"}
	if got := destinations(p); !reflect.DeepEqual(got, want) {
		t.Errorf("destinations = %v, want %v", got, want)
	}
}

func TestBuild_PlanError(t *testing.T) {
	_, err := Build(nil, nil, Options{Mode: models.ModeType, OutputRoot: "  "})
	var planErr *models.PlanError
	if !errors.As(err, &planErr) {
		t.Errorf("Build() error = %v, want *PlanError", err)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	p, err := Build(nil, nil, contentOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Len() != 0 || len(p.Dirs) != 0 {
		t.Errorf("plan = %+v, want empty", p)
	}
}
