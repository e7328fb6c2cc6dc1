/*
Package artifact reads and writes the run artifact: the ranked workbook a
pipeline run leaves behind, and the read source for rows carried forward
into the next run.
*/
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
)

const sheetName = "Sheet1"

var columns = []string{
	"Rank", "File", "PDF_Link", "Company", "SCRIP_CD", "Impact",
	"Summary", "Price_Range", "Rationale", "Impact_Score", "Mid_%",
}

// Read loads the ranked rows of a prior run. A missing artifact is not an
// error: first runs start with no carried rows.
func Read(path string) ([]screen.Record, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open run artifact: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read run artifact: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]screen.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := screen.Record{
			Rank:       atoiCell(cell(row, 0)),
			File:       cell(row, 1),
			PDFLink:    cell(row, 2),
			Company:    cell(row, 3),
			ScripCode:  cell(row, 4),
			Impact:     cell(row, 5),
			Summary:    cell(row, 6),
			PriceRange: cell(row, 7),
			Rationale:  cell(row, 8),
		}
		rec.ImpactScore = atoiCell(cell(row, 9))
		rec.MidPercent = atofCell(cell(row, 10))
		if rec.ScripCode == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Write replaces the run artifact wholesale, via a temp file and rename so a
// crashed run never leaves a half-written workbook behind.
func Write(path string, records []screen.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range columns {
		if err := setCell(f, i+1, 1, name); err != nil {
			return err
		}
	}
	for r, rec := range records {
		values := []any{
			rec.Rank, rec.File, rec.PDFLink, rec.Company, rec.ScripCode, rec.Impact,
			rec.Summary, rec.PriceRange, rec.Rationale, rec.ImpactScore, rec.MidPercent,
		}
		for c, v := range values {
			if err := setCell(f, c+1, r+2, v); err != nil {
				return err
			}
		}
	}

	// excelize refuses to save under a non-workbook extension, so the
	// staging file keeps .xlsx and only the rename makes it visible.
	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("save run artifact: %w", err)
	}
	return os.Rename(tmp, path)
}

func setCell(f *excelize.File, col, row int, v any) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name (%d,%d): %w", col, row, err)
	}
	return f.SetCellValue(sheetName, name, v)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func atoiCell(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atofCell(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
