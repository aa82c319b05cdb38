package plan

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeStem(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Summary", "Summary"},
		{"q3 report", "q3_report"},
		{"The summary of the Q3 report", "Q3_report"},
		{"invoice: ACME <2024>?", "invoice_ACME_2024"},
		{"one two three four five six seven", "one_two_three_four_five"},
		{"  ", DefaultName},
		{"***", DefaultName},
		{"holiday.jpg", "holiday"},
		{"v1.2 release", "v1_2_release"},
		{"tab\tand\nnewline", "tab_newline"},
		{"café menu", "café_menu"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeStem(tt.input); got != tt.want {
				t.Errorf("SanitizeStem(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeStemLength(t *testing.T) {
	got := SanitizeStem(strings.Repeat("é", 40))
	if len(got) > MaxNameBytes {
		t.Errorf("len = %d, want <= %d", len(got), MaxNameBytes)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune: %q", got)
	}
}

func TestSanitizeFolder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Work", "Work"},
		{"financial records", "Financial Records"},
		{"travel/photos", "Travel Photos"},
		{"AI research", "AI Research"},
		{"NASA mission logs", "NASA Mission Logs"},
		{"", "Unclassified"},
		{"???", "Unclassified"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFolder(tt.input); got != tt.want {
				t.Errorf("SanitizeFolder(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAlignFolder(t *testing.T) {
	existing := []string{"Images", "Documents", "2024/March"}
	tests := []struct {
		desired string
		want    string
	}{
		{"Images", "Images"},
		{"Photos", "Images"},
		{"Document", "Documents"},
		{"Recipes", "Recipes"},
	}
	for _, tt := range tests {
		t.Run(tt.desired, func(t *testing.T) {
			if got := AlignFolder(tt.desired, existing); got != tt.want {
				t.Errorf("AlignFolder(%s) = %s, want %s", tt.desired, got, tt.want)
			}
		})
	}

	if got := AlignFolder("Photos", nil); got != "Photos" {
		t.Errorf("AlignFolder() without candidates = %s", got)
	}
}

func TestSequenceRatio(t *testing.T) {
	if got := sequenceRatio("abcd", "abcd"); got != 1 {
		t.Errorf("identical ratio = %v", got)
	}
	if got := sequenceRatio("abcd", "wxyz"); got != 0 {
		t.Errorf("disjoint ratio = %v", got)
	}
	// python: SequenceMatcher(None, "documents", "document").ratio() == 16/17
	if got := sequenceRatio("documents", "document"); got < 0.94 || got > 0.95 {
		t.Errorf("ratio = %v, want ~0.941", got)
	}
}
