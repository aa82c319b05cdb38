package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sdejongh/filenorris/pkg/models"
)

func createFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return p
}

func relPaths(res *Result) []string {
	out := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		out[i] = filepath.ToSlash(e.RelativePath)
	}
	return out
}

func defaultOptions() Options {
	return Options{Extensions: models.DefaultExtensions()}
}

func TestScan_FiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "b.txt", "b")
	createFile(t, root, "a.PNG", "png")
	createFile(t, root, "notes/report.pdf", "pdf")
	createFile(t, root, "binary.exe", "nope")
	createFile(t, root, ".hidden.txt", "hidden")
	createFile(t, root, ".cache/inside.txt", "hidden dir")

	res, err := New(defaultOptions(), nil).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	got := relPaths(res)
	want := []string{"a.PNG", "b.txt", "notes/report.pdf"}
	if len(got) != len(want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}

	if res.Entries[0].Kind != models.KindImage {
		t.Errorf("a.PNG kind = %s, want image", res.Entries[0].Kind)
	}
	if res.Entries[1].Kind != models.KindText {
		t.Errorf("b.txt kind = %s, want text", res.Entries[1].Kind)
	}
	if res.Entries[1].Size != 1 {
		t.Errorf("b.txt size = %d, want 1", res.Entries[1].Size)
	}
}

func TestScan_ExtensionSetIsConfigurable(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "a.txt", "a")
	createFile(t, root, "b.go", "package b")

	res, err := New(Options{Extensions: []string{"GO"}}, nil).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := relPaths(res); len(got) != 1 || got[0] != "b.go" {
		t.Errorf("Scan() = %v, want [b.go]", got)
	}
	if res.Entries[0].Kind != models.KindUnknown {
		t.Errorf("kind = %s, want unknown", res.Entries[0].Kind)
	}
}

func TestScan_ExcludeAndSkipDirs(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "keep.txt", "k")
	createFile(t, root, "draft.tmp.txt", "k")
	createFile(t, root, "node_modules/pkg/readme.md", "x")
	createFile(t, root, "organized_folder/Work/old.txt", "x")

	opts := defaultOptions()
	opts.Exclude = []string{"draft*", "node_modules/"}
	opts.SkipDirs = []string{filepath.Join(root, "organized_folder")}

	res, err := New(opts, nil).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := relPaths(res); len(got) != 1 || got[0] != "keep.txt" {
		t.Errorf("Scan() = %v, want [keep.txt]", got)
	}
}

func TestScan_SymlinksFollowedOnce(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	createFile(t, root, "docs/a.txt", "a")

	// loop back to the root and a second path to docs
	if err := os.Symlink(root, filepath.Join(root, "docs", "loop")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "docs"), filepath.Join(root, "alias")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "docs", "a.txt"), filepath.Join(root, "zz-link.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	res, err := New(defaultOptions(), nil).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("Scan() = %v, want a single entry", relPaths(res))
	}
}

func TestScan_HardLinkedNamesAreSeparateEntries(t *testing.T) {
	root := t.TempDir()
	first := createFile(t, root, "a/invoice.txt", "same data")
	if err := os.MkdirAll(filepath.Join(root, "b"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Link(first, filepath.Join(root, "b", "contract.txt")); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}

	res, err := New(defaultOptions(), nil).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	got := relPaths(res)
	if len(got) != 2 || got[0] != "a/invoice.txt" || got[1] != "b/contract.txt" {
		t.Errorf("Scan() = %v, want [a/invoice.txt b/contract.txt]", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
}

func TestScan_BrokenSymlinkIsWarning(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	createFile(t, root, "ok.txt", "ok")
	if err := os.Symlink(filepath.Join(root, "missing.txt"), filepath.Join(root, "broken.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	res, err := New(defaultOptions(), nil).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Entries) != 1 {
		t.Errorf("entries = %d, want 1", len(res.Entries))
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want 1", res.Warnings)
	}
}

func TestScan_UnreadableSubdirIsWarning(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	createFile(t, root, "ok.txt", "ok")
	locked := filepath.Join(root, "locked")
	createFile(t, root, "locked/secret.txt", "s")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer os.Chmod(locked, 0755)

	res, err := New(defaultOptions(), nil).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Entries) != 1 || len(res.Warnings) != 1 {
		t.Errorf("entries = %d, warnings = %v", len(res.Entries), res.Warnings)
	}
}

func TestScan_InvalidRoot(t *testing.T) {
	root := t.TempDir()
	file := createFile(t, root, "file.txt", "x")

	tests := map[string]string{
		"Missing": filepath.Join(root, "nope"),
		"NotDir":  file,
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(defaultOptions(), nil).Scan(context.Background(), path)
			var scanErr *models.ScanError
			if !errors.As(err, &scanErr) {
				t.Errorf("Scan() error = %v, want *ScanError", err)
			}
		})
	}
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(defaultOptions(), nil).Scan(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestExcludeMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		want     bool
	}{
		{"BaseGlob", []string{"*.tmp"}, "a/b/file.tmp", false, true},
		{"BaseGlobMiss", []string{"*.tmp"}, "a/b/file.txt", false, false},
		{"DirPatternDir", []string{".git/"}, "sub/.git", true, true},
		{"DirPatternFileBelow", []string{"node_modules/"}, "web/node_modules/x/y.js", false, true},
		{"DirPatternSameNameFile", []string{"build/"}, "build", false, false},
		{"AnyDepth", []string{"**/cache"}, "a/cache/b.txt", false, true},
		{"PathPattern", []string{"build/*.o"}, "build/main.o", false, true},
		{"PathPatternNested", []string{"build/*.o"}, "src/build/main.o", false, true},
		{"Empty", []string{""}, "a.txt", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newExcludeMatcher(tt.patterns)
			if got := m.Match(tt.path, tt.isDir); got != tt.want {
				t.Errorf("Match(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
