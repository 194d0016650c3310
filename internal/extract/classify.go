package extract

import (
	"strings"
	"unicode"
)

// Document type categories derived from corpus filename conventions.
const (
	TypeManagementReport  = "informe_gestion"
	TypeExecutiveReport   = "informe_ejecutivo"
	TypeControlDashboard  = "tablero_control"
	TypeSupplementaryData = "datos_complementarios"
	TypeGeneralDocument   = "documento_general"
)

// classifyRules are evaluated top to bottom; the first match wins.
// These encode the naming conventions of the official document set, not any
// content-based signal.
var classifyRules = []struct {
	match   func(lower string) bool
	docType string
}{
	{containsAll("informe", "gestion"), TypeManagementReport},
	{containsAll("informe", "ejecutivo"), TypeExecutiveReport},
	{containsAll("tablero", "control"), TypeControlDashboard},
	{numericPrefixedSpreadsheet, TypeSupplementaryData},
}

// Classify derives the document type from a filename. Filenames that match
// no rule fall back to the general category.
func Classify(filename string) string {
	lower := strings.ToLower(filename)
	for _, r := range classifyRules {
		if r.match(lower) {
			return r.docType
		}
	}
	return TypeGeneralDocument
}

func containsAll(words ...string) func(string) bool {
	return func(lower string) bool {
		for _, w := range words {
			if !strings.Contains(lower, w) {
				return false
			}
		}
		return true
	}
}

// numericPrefixedSpreadsheet matches supplementary data trackers, which in
// this corpus are spreadsheets named with a leading figure number.
func numericPrefixedSpreadsheet(lower string) bool {
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
		return false
	}
	for _, r := range lower {
		return unicode.IsDigit(r)
	}
	return false
}
