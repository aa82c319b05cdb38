package plan

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sdejongh/filenorris/pkg/models"
)

const (
	// MaxNameBytes caps a sanitized file stem or folder name
	MaxNameBytes = 50

	// MaxNameWords caps the number of words of a sanitized file stem
	MaxNameWords = 5

	// DefaultName replaces a name that sanitizes to nothing
	DefaultName = "untitled"
)

// fillerWords are dropped from suggested names; models like to pad them with
// these. File-type words are included so "report pdf" does not become report_pdf.pdf.
var fillerWords = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true, "txt": true,
	"md": true, "pdf": true, "docx": true, "xls": true, "xlsx": true, "csv": true,
	"ppt": true, "pptx": true, "image": true, "picture": true, "photo": true,
	"this": true, "that": true, "these": true, "those": true, "here": true,
	"there": true, "please": true, "note": true, "additional": true, "notes": true,
	"folder": true, "name": true, "sure": true, "heres": true, "a": true, "an": true,
	"the": true, "and": true, "of": true, "in": true, "to": true, "for": true,
	"on": true, "with": true, "your": true, "answer": true, "should": true,
	"be": true, "only": true, "summary": true, "summarize": true, "text": true,
	"category": true,
}

// illegalChars are rejected by at least one common filesystem
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)

// separatorRun matches whitespace and underscore runs
var separatorRun = regexp.MustCompile(`[\s_]+`)

// titleCaser capitalizes words and keeps existing capitals (acronyms)
var titleCaser = cases.Title(language.Und, cases.NoLower)

// words splits a raw name into its word tokens: illegal and punctuation
// characters are dropped, whitespace and underscores separate words
func words(raw string) []string {
	raw = illegalChars.ReplaceAllString(raw, " ")
	raw = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			return r
		case unicode.IsSpace(r), r == '.':
			return ' '
		default:
			return -1
		}
	}, raw)
	raw = separatorRun.ReplaceAllString(raw, " ")

	var out []string
	for _, w := range strings.Fields(raw) {
		if w = strings.Trim(w, "-"); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// SanitizeStem turns a suggested name into a safe file stem: filler words
// are dropped unless nothing else remains, at most MaxNameWords words are
// joined with underscores, and the result is capped at MaxNameBytes.
func SanitizeStem(raw string) string {
	raw = stripKnownExtension(raw)
	all := words(raw)

	kept := make([]string, 0, len(all))
	for _, w := range all {
		if !fillerWords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		kept = all
	}
	if len(kept) > MaxNameWords {
		kept = kept[:MaxNameWords]
	}

	name := truncateBytes(strings.Join(kept, "_"), MaxNameBytes)
	name = strings.Trim(name, "_")
	if name == "" {
		return DefaultName
	}
	return name
}

// SanitizeFolder turns a category into a title-cased folder name.
// An empty result maps to the unclassified bucket.
func SanitizeFolder(raw string) string {
	ws := words(raw)
	if len(ws) == 0 {
		return models.UnclassifiedCategory
	}
	name := titleCaser.String(strings.Join(ws, " "))
	name = strings.TrimSpace(truncateBytes(name, MaxNameBytes))
	if name == "" {
		return models.UnclassifiedCategory
	}
	return name
}

// stripKnownExtension removes a trailing extension only when it is a known
// file type, so "v1.2 notes" keeps its dot-separated words
func stripKnownExtension(raw string) string {
	raw = strings.TrimSpace(raw)
	i := strings.LastIndexByte(raw, '.')
	if i <= 0 {
		return raw
	}
	if models.TypeGroup(raw[i:]) != models.GroupOther {
		return raw[:i]
	}
	return raw
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
