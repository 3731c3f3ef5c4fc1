package contactio

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/elit-parking/campaign-cli/internal/model"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads raw contacts from a workbook sheet whose first row names
// the columns. Header matching ignores case and surrounding space.
func ReadXLSX(path string, opts XLSXOptions) ([]model.RawContact, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "contactio: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("contactio: empty sheet")
	}

	cols := map[string]int{}
	for i, h := range rowToStrings(sheet.Rows[0]) {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, eris.Errorf("contactio: missing column %q", col)
		}
	}

	var out []model.RawContact
	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		c := model.RawContact{
			Phone: cellAt(cells, cols, ColumnPhone),
			Name:  cellAt(cells, cols, ColumnName),
			Email: cellAt(cells, cols, ColumnEmail),
		}
		if c == (model.RawContact{}) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("contactio: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("contactio: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func cellAt(cells []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}
