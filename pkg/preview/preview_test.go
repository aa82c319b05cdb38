package preview

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/plan"
)

func buildPlan(t *testing.T, root string, link models.LinkMode, sizes map[string]int64) *models.Plan {
	t.Helper()
	var entries []models.FileEntry
	lookup := plan.Lookup{}
	for name, size := range sizes {
		e := models.FileEntry{AbsolutePath: filepath.Join("/data/input", name), Size: size, Kind: models.KindText}
		entries = append(entries, e)
		lookup[e.AbsolutePath] = models.Metadata{Category: "Work", SuggestedName: strings.TrimSuffix(name, filepath.Ext(name))}
	}
	p, err := plan.Build(entries, lookup, plan.Options{Mode: models.ModeContent, OutputRoot: root, LinkMode: link})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return p
}

// snapshot records every path under root with its size and mode
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	snap := make(map[string]string)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		snap[p] = fmt.Sprintf("%s %s %d", info.Mode(), info.ModTime(), info.Size())
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func TestSimulate_CopyEstimate(t *testing.T) {
	p := buildPlan(t, "/data/output", models.LinkCopy, map[string]int64{
		"a.txt": 10 * 1024,
		"b.txt": 20 * 1024,
		"c.txt": 30 * 1024,
	})

	pv := Simulate(p)
	if pv.EstimatedBytes != 60*1024 {
		t.Errorf("EstimatedBytes = %d, want %d", pv.EstimatedBytes, 60*1024)
	}
	if pv.Len() != 3 {
		t.Errorf("Len() = %d, want 3", pv.Len())
	}
	if len(pv.Folders) != 1 || pv.Folders[0].Folder != "Work" || pv.Folders[0].EstimatedBytes != 60*1024 {
		t.Errorf("Folders = %+v", pv.Folders)
	}
}

func TestSimulate_LinksEstimateZero(t *testing.T) {
	for _, link := range []models.LinkMode{models.LinkHard, models.LinkSymbolic} {
		t.Run(string(link), func(t *testing.T) {
			p := buildPlan(t, "/data/output", link, map[string]int64{"a.txt": 4096, "b.txt": 8192})
			pv := Simulate(p)
			if pv.EstimatedBytes != 0 {
				t.Errorf("EstimatedBytes = %d, want 0", pv.EstimatedBytes)
			}
			if pv.TotalSourceBytes != 4096+8192 {
				t.Errorf("TotalSourceBytes = %d", pv.TotalSourceBytes)
			}
		})
	}
}

func TestSimulate_Purity(t *testing.T) {
	base := t.TempDir()
	output := filepath.Join(base, "output")
	if err := os.MkdirAll(filepath.Join(output, "Existing"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(output, "Existing", "keep.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	before := snapshot(t, base)

	p := buildPlan(t, output, models.LinkCopy, map[string]int64{"a.txt": 1, "b.txt": 2})
	pv := Simulate(p)
	var buf bytes.Buffer
	if err := pv.RenderTree(&buf, nil); err != nil {
		t.Fatalf("RenderTree() error = %v", err)
	}
	if err := pv.RenderSummary(&buf); err != nil {
		t.Fatalf("RenderSummary() error = %v", err)
	}

	if after := snapshot(t, base); !reflect.DeepEqual(before, after) {
		t.Errorf("filesystem changed during simulation:\nbefore %v\nafter  %v", before, after)
	}
	if _, err := os.Stat(filepath.Join(output, "Work")); !os.IsNotExist(err) {
		t.Errorf("simulation created a directory: %v", err)
	}
}

func TestRenderTree(t *testing.T) {
	p := &models.Plan{
		OutputRoot: "/out",
		LinkMode:   models.LinkHard,
		Operations: []models.Operation{
			{DestinationPath: "/out/Work/b.txt", Folder: "Work"},
			{DestinationPath: "/out/Work/a.txt", Folder: "Work"},
			{DestinationPath: "/out/2024/03-March/c.png", Folder: "2024"},
		},
	}

	var buf bytes.Buffer
	if err := Simulate(p).RenderTree(&buf, nil); err != nil {
		t.Fatalf("RenderTree() error = %v", err)
	}

	want := strings.Join([]string{
		"/out",
		"├── 2024/",
		"│   └── 03-March/",
		"│       └── c.png",
		"└── Work/",
		"    ├── a.txt",
		"    └── b.txt",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("RenderTree() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderTreeStyle(t *testing.T) {
	p := &models.Plan{OutputRoot: "/out", Operations: []models.Operation{{DestinationPath: "/out/Work/a.txt"}}}
	var buf bytes.Buffer
	style := func(s string) string { return "<" + s + ">" }
	if err := Simulate(p).RenderTree(&buf, style); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<Work/>") || strings.Contains(buf.String(), "<a.txt>") {
		t.Errorf("styled tree = %q", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	p := buildPlan(t, "/data/output", models.LinkCopy, map[string]int64{"a.txt": 1000, "b.md": 2000})
	var buf bytes.Buffer
	if err := Simulate(p).RenderSummary(&buf); err != nil {
		t.Fatalf("RenderSummary() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Work", "Total", ".txt", ".md", "Text", "3.0 kB", "Link mode: copy"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestNodeCount(t *testing.T) {
	p := buildPlan(t, "/data/output", models.LinkCopy, map[string]int64{"a.txt": 1, "b.txt": 1, "c.txt": 1})
	if got := Simulate(p).Tree.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}
