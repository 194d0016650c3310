package extract

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"gober/internal/logger"
)

// Excel textualizes a workbook into one unit per block of rowBlock data rows,
// sheet by sheet in workbook order. Every unit is prefixed with a summary of
// its sheet (name, columns, row count) so each block stays self-describing
// when retrieved in isolation. Sheets without data rows produce no units.
func Excel(path string, rowBlock int) ([]Unit, error) {
	if rowBlock <= 0 {
		rowBlock = DefaultRowBlock
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	var units []Unit
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warn("workbook %s: sheet %q unreadable: %v", path, sheet, err)
			continue
		}
		if len(rows) < 2 {
			// Header only, or empty. Nothing to index.
			continue
		}

		header := rows[0]
		data := rows[1:]
		summary := fmt.Sprintf("Hoja: %s\nColumnas: %s\nFilas: %d\n\n",
			sheet, strings.Join(header, ", "), len(data))

		for start := 0; start < len(data); start += rowBlock {
			end := start + rowBlock
			if end > len(data) {
				end = len(data)
			}

			var b strings.Builder
			b.WriteString(summary)
			fmt.Fprintf(&b, "Datos (filas %d a %d):\n", start+1, end)
			for _, row := range data[start:end] {
				b.WriteString("- ")
				b.WriteString(rowText(header, row))
				b.WriteByte('\n')
			}

			units = append(units, Unit{
				Text: b.String(),
				Loc: Location{
					Sheet:    sheet,
					RowRange: fmt.Sprintf("%d-%d", start+1, end),
				},
			})
		}
	}
	return units, nil
}

// rowText renders a row as "column: value" pairs joined by " | ",
// omitting empty cells. Trailing cells beyond the header are ignored.
func rowText(header, row []string) string {
	pairs := make([]string, 0, len(header))
	for i, col := range header {
		if i >= len(row) {
			break
		}
		val := strings.TrimSpace(row[i])
		if val == "" {
			continue
		}
		pairs = append(pairs, col+": "+val)
	}
	return strings.Join(pairs, " | ")
}
