package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"gober/internal/logger"
)

// PDF extracts plain text from each page of the file, in page order.
// Pages that yield only whitespace produce no unit. A page that fails to
// decode is logged and skipped; only a file-level failure is an error.
func PDF(path string) ([]Unit, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var units []Unit
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf %s: page %d unreadable: %v", path, i, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, Unit{Text: text, Loc: Location{Page: i}})
	}
	return units, nil
}
