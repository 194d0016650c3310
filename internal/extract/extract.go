// Package extract converts raw corpus files (PDF reports, Excel trackers)
// into ordered sequences of located text units ready for chunking.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source type values recorded on chunk metadata.
const (
	SourcePDF   = "pdf"
	SourceExcel = "excel"
)

// DefaultRowBlock is the number of spreadsheet rows textualized per unit.
const DefaultRowBlock = 50

// Location pinpoints where a unit came from inside its source file.
// Exactly one of Page or Sheet is set.
type Location struct {
	Page     int    // 1-based page number for PDF units
	Sheet    string // sheet name for spreadsheet units
	RowRange string // e.g. "51-100" for spreadsheet units
}

// Unit is a located block of raw text produced by a format extractor.
type Unit struct {
	Text string
	Loc  Location
}

// Supported reports whether the file extension belongs to a known format.
// Legacy binary .xls workbooks are not supported; only OOXML spreadsheets
// can be parsed.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".xlsx":
		return true
	}
	return false
}

// FromFile dispatches to the extractor for the file's format and returns the
// extracted units along with the source type tag.
func FromFile(path string, rowBlock int) ([]Unit, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		units, err := PDF(path)
		return units, SourcePDF, err
	case ".xlsx":
		units, err := Excel(path, rowBlock)
		return units, SourceExcel, err
	default:
		return nil, "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}
