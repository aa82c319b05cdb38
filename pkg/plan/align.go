package plan

import (
	"path/filepath"
	"regexp"
	"strings"
)

// AlignThreshold is the minimum similarity for reusing an existing folder
const AlignThreshold = 0.62

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var pathNoise = regexp.MustCompile(`[^a-z0-9/]+`)

var tokenSplit = regexp.MustCompile(`[_\-]+`)

// synonyms map folder words to a canonical token
var synonyms = map[string]string{
	"images": "image", "image": "image", "photos": "image", "pics": "image", "pictures": "image",
	"texts": "text", "text": "text", "documents": "doc", "document": "doc", "docs": "doc",
	"pdfs": "pdf", "pdf": "pdf", "xls": "xls", "xlsx": "xls", "spreadsheets": "xls",
	"powerpoint": "ppt", "presentations": "ppt", "presentation": "ppt", "pptx": "ppt", "ppt": "ppt",
	"ebooks": "ebook", "ebook": "ebook", "books": "ebook", "book": "ebook",
	"others": "other", "other": "other",
}

// AlignFolder maps a desired relative folder to the most similar existing
// one. The desired folder is returned when it already exists or when no
// candidate reaches AlignThreshold. Ties keep the first candidate.
func AlignFolder(desired string, existing []string) string {
	desiredSlash := filepath.ToSlash(desired)
	best := ""
	bestScore := -1.0
	for _, cand := range existing {
		candSlash := filepath.ToSlash(cand)
		if candSlash == desiredSlash {
			return desired
		}
		if score := similarity(desiredSlash, candSlash); score > bestScore {
			best, bestScore = cand, score
		}
	}
	if best != "" && bestScore >= AlignThreshold {
		return best
	}
	return desired
}

// similarity is the max of a sequence ratio and the token Jaccard index
func similarity(a, b string) float64 {
	ratio := sequenceRatio(
		nonAlnum.ReplaceAllString(strings.ToLower(a), "_"),
		nonAlnum.ReplaceAllString(strings.ToLower(b), "_"),
	)

	ta, tb := tokens(a), tokens(b)
	union := len(ta)
	inter := 0
	for t := range tb {
		if ta[t] {
			inter++
		} else {
			union++
		}
	}
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(inter) / float64(union)
	}

	if jaccard > ratio {
		return jaccard
	}
	return ratio
}

func tokens(rel string) map[string]bool {
	s := strings.ToLower(rel)
	s = pathNoise.ReplaceAllString(s, "_")
	set := make(map[string]bool)
	for _, part := range strings.Split(s, "/") {
		for _, tok := range tokenSplit.Split(part, -1) {
			if tok != "" {
				set[normalizeToken(tok)] = true
			}
		}
	}
	return set
}

func normalizeToken(tok string) string {
	if s, ok := synonyms[tok]; ok {
		return s
	}
	return strings.TrimRight(tok, "s")
}

// sequenceRatio is the Ratcliff/Obershelp similarity 2*M/T, where M counts
// characters of recursively found longest common blocks
func sequenceRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(a, b)) / float64(total)
}

func matchingChars(a, b string) int {
	i, j, n := longestCommonBlock(a, b)
	if n == 0 {
		return 0
	}
	return n + matchingChars(a[:i], b[:j]) + matchingChars(a[i+n:], b[j+n:])
}

// longestCommonBlock returns the earliest longest common substring of a and b
func longestCommonBlock(a, b string) (int, int, int) {
	bestI, bestJ, bestN := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestN {
					bestI, bestJ, bestN = i-cur[j], j-cur[j], cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestN
}
