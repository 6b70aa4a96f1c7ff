package exporter

import (
	"strings"
	"unicode"
)

// DefaultFileName is used when the operator leaves the output name blank.
const DefaultFileName = "Traffic_xxx_xxx_25"

const workbookExt = ".xlsx"

// SanitizeFileName turns operator input into a safe workbook file name.
// Path separators and characters rejected by common file systems are removed,
// and ".xlsx" is appended when missing.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	if strings.HasSuffix(strings.ToLower(cleaned), workbookExt) {
		cleaned = cleaned[:len(cleaned)-len(workbookExt)]
	}
	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" {
		cleaned = DefaultFileName
	}
	return cleaned + workbookExt
}
