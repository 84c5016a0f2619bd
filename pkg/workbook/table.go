package workbook

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/records"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

type column struct {
	index  int
	header string
	// field is the record field written to this column, empty for extra columns.
	field string
}

// tableLayout is a located table with its worksheet coordinates (1-based,
// header row included).
type tableLayout struct {
	sheet   string
	table   excelize.Table
	left    int
	top     int
	right   int
	bottom  int
	columns []column
}

func (l *tableLayout) dataRows() int {
	return l.bottom - l.top
}

func (l *tableLayout) ref() string {
	return cellName(l.left, l.top) + ":" + cellName(l.right, l.bottom)
}

func open(data []byte) (*excelize.File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, core.NewFormatError("template is not a valid spreadsheet", err)
	}
	return f, nil
}

func locate(f *excelize.File, sheet, name string) (*tableLayout, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx == -1 {
		return nil, core.NewNotFoundError(fmt.Sprintf("sheet %q not found", sheet), err)
	}

	// the sheet must exist, but the table is looked up across the workbook
	table, host, err := findTable(f, sheet, name)
	if err != nil {
		return nil, err
	}

	if table.ShowHeaderRow != nil && !*table.ShowHeaderRow {
		return nil, core.NewFormatError(fmt.Sprintf("table %q has no header row", table.Name), nil)
	}

	left, top, right, bottom, err := parseRange(table.Range)
	if err != nil {
		return nil, core.NewFormatError(fmt.Sprintf("table %q has an invalid range", table.Name), err)
	}

	l := &tableLayout{
		sheet:  host,
		table:  table,
		left:   left,
		top:    top,
		right:  right,
		bottom: bottom,
	}

	for col := left; col <= right; col++ {
		header, err := f.GetCellValue(host, cellName(col, top))
		if err != nil {
			return nil, core.NewFormatError("read table header", err)
		}
		l.columns = append(l.columns, column{index: col, header: header})
	}
	mapColumns(l.columns)

	return l, nil
}

// findTable returns the table matching name case-insensitively and the sheet
// holding it. The requested sheet is searched first.
func findTable(f *excelize.File, sheet, name string) (excelize.Table, string, error) {
	sheets := append([]string{sheet}, lo.Without(f.GetSheetList(), sheet)...)

	for _, candidate := range sheets {
		tables, err := f.GetTables(candidate)
		if err != nil {
			return excelize.Table{}, "", core.NewFormatError(fmt.Sprintf("read tables on sheet %q", candidate), err)
		}

		table, ok := lo.Find(tables, func(t excelize.Table) bool {
			return strings.EqualFold(t.Name, name)
		})
		if ok {
			return table, candidate, nil
		}
	}

	return excelize.Table{}, "", core.NewNotFoundError(fmt.Sprintf("table %q not found in workbook", name), nil)
}

// mapColumns assigns record fields to columns by header name. Templates whose
// headers name none of the fields fall back to positional order.
func mapColumns(columns []column) {
	matched := false
	for i := range columns {
		header := strings.TrimSpace(columns[i].header)
		field, ok := lo.Find(records.Fields, func(f string) bool {
			return strings.EqualFold(f, header)
		})
		if ok {
			columns[i].field = field
			matched = true
		}
	}
	if matched {
		return
	}

	for i := range min(len(columns), len(records.Fields)) {
		columns[i].field = records.Fields[i]
	}
}

func parseRange(ref string) (left, top, right, bottom int, err error) {
	parts := strings.Split(strings.ReplaceAll(ref, "$", ""), ":")
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("range %q is not an area", ref)
	}

	x1, y1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	x2, y2, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return min(x1, x2), min(y1, y2), max(x1, x2), max(y1, y2), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
