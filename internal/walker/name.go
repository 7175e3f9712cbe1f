package walker

import "strings"

// multipartMarker is inserted by upstream multi-part export jobs before the
// spreadsheet extension.
const multipartMarker = "_0.xlsx"

// NormalizeName maps a file's base name to its archive entry name:
// "report_0.xlsx" becomes "report.xlsx". Other names are returned unchanged.
func NormalizeName(base string) string {
	return strings.ReplaceAll(base, multipartMarker, ".xlsx")
}
