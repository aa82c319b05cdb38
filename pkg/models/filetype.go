package models

import (
	"sort"
	"strings"
)

// Type groups used by the type layout and by preview statistics
const (
	GroupImages        = "Images"
	GroupDocuments     = "Documents"
	GroupSpreadsheets  = "Spreadsheets"
	GroupPresentations = "Presentations"
	GroupPDFs          = "PDFs"
	GroupEbooks        = "Ebooks"
	GroupText          = "Text"
	GroupOther         = "Other"
)

var extensionGroups = map[string]string{
	".png":  GroupImages,
	".jpg":  GroupImages,
	".jpeg": GroupImages,
	".gif":  GroupImages,
	".bmp":  GroupImages,
	".tif":  GroupImages,
	".tiff": GroupImages,
	".webp": GroupImages,
	".heic": GroupImages,

	".doc":  GroupDocuments,
	".docx": GroupDocuments,
	".odt":  GroupDocuments,
	".rtf":  GroupDocuments,

	".xls":  GroupSpreadsheets,
	".xlsx": GroupSpreadsheets,
	".ods":  GroupSpreadsheets,
	".csv":  GroupSpreadsheets,

	".ppt":  GroupPresentations,
	".pptx": GroupPresentations,
	".odp":  GroupPresentations,

	".pdf": GroupPDFs,

	".epub": GroupEbooks,
	".mobi": GroupEbooks,
	".azw":  GroupEbooks,
	".azw3": GroupEbooks,

	".txt":  GroupText,
	".md":   GroupText,
	".json": GroupText,
	".log":  GroupText,
}

// TypeGroup returns the group for an extension (with dot, any case)
func TypeGroup(ext string) string {
	if g, ok := extensionGroups[strings.ToLower(ext)]; ok {
		return g
	}
	return GroupOther
}

// KindForExt derives the content kind from an extension
func KindForExt(ext string) ContentKind {
	switch TypeGroup(ext) {
	case GroupImages:
		return KindImage
	case GroupOther:
		return KindUnknown
	default:
		return KindText
	}
}

// DefaultExtensions returns every extension known to a type group, sorted
func DefaultExtensions() []string {
	exts := make([]string, 0, len(extensionGroups))
	for ext := range extensionGroups {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
