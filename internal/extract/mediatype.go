package extract

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Media types with a registered extractor.
const (
	TypePDF      = "application/pdf"
	TypeCSV      = "text/csv"
	TypeText     = "text/plain"
	TypeXLS      = "application/vnd.ms-excel"
	TypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	TypeDOC      = "application/msword"
	TypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	typeTSV      = "text/tab-separated-values"
	typeMarkdown = "text/markdown"
)

// knownTypes pins the extensions the agent cares about so resolution does not
// depend on the host's mime.types database.
var knownTypes = map[string]string{
	"pdf":  TypePDF,
	"csv":  TypeCSV,
	"tsv":  typeTSV,
	"txt":  TypeText,
	"text": TypeText,
	"log":  TypeText,
	"md":   typeMarkdown,
	"xls":  TypeXLS,
	"xlsx": TypeXLSX,
	"doc":  TypeDOC,
	"docx": TypeDOCX,
}

// DetectType returns the media type for path based on its extension, or ""
// when it cannot be determined. File contents are never inspected.
func DetectType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return ""
	}
	if t, ok := knownTypes[ext]; ok {
		return t
	}
	if t := filetype.GetType(ext); t != filetype.Unknown && t.MIME.Value != "" {
		return t.MIME.Value
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	return ""
}
