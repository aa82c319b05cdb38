package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sdejongh/filenorris/pkg/models"
)

// ParseMetadata extracts metadata from a model response. JSON objects are
// accepted bare, inside code fences or surrounded by prose; otherwise
// "Category:", "Filename:" and "Description:" lines are read.
func ParseMetadata(content string) (models.Metadata, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return models.Metadata{}, errors.New("empty response")
	}

	var md models.Metadata
	if obj := extractJSONObject(trimmed); obj != "" {
		if err := json.Unmarshal([]byte(obj), &md); err == nil {
			return normalize(md)
		}
	}

	md = parseLines(trimmed)
	return normalize(md)
}

func normalize(md models.Metadata) (models.Metadata, error) {
	md.Category = strings.TrimSpace(md.Category)
	md.Description = strings.TrimSpace(md.Description)
	md.SuggestedName = strings.TrimSpace(md.SuggestedName)
	if md.Category == "" && md.SuggestedName == "" {
		return md, errors.New("response has neither category nor filename")
	}
	return md, nil
}

func extractJSONObject(content string) string {
	body := stripCodeFence(content)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return ""
	}
	return body[start : end+1]
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	body := strings.TrimLeft(content[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func parseLines(content string) models.Metadata {
	var md models.Metadata
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Trim(strings.TrimSpace(key), "*-# "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch key {
		case "category", "folder", "foldername", "folder name":
			if md.Category == "" {
				md.Category = value
			}
		case "filename", "file name", "name":
			if md.SuggestedName == "" {
				md.SuggestedName = value
			}
		case "description", "summary":
			if md.Description == "" {
				md.Description = value
			}
		}
	}
	return md
}

// snippet shortens a payload for error messages
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}

func parseError(content string, err error) error {
	return fmt.Errorf("parse response: %w (snippet: %s)", err, snippet(content))
}
