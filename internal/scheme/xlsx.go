package scheme

import (
	"fmt"
	"strings"

	"occubench/internal/dataset"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads a scheme from a worksheet whose first row is the header.
func LoadXLSX(path string, opts Options) (*ReferenceSet, error) {
	opts = opts.withDefaults()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: sheet %q: %w", path, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %q is empty", path, sheet)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		records = append(records, fit(row, len(header)))
	}

	table, err := dataset.FromRecords(header, records, opts.loadOptions())
	if err != nil {
		return nil, fmt.Errorf("%s: sheet %q: %w", path, sheet, err)
	}
	set, err := FromRows(table, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: sheet %q: %w", path, sheet, err)
	}
	return set, nil
}

// fit pads or cuts a row to width. Spreadsheet rows drop trailing empty
// cells.
func fit(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
