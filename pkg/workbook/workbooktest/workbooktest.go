// Package workbooktest builds spreadsheet templates for tests.
package workbooktest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultSheet = "Details"
	DefaultTable = "PersonalDetails"
	TableStyle   = "TableStyleMedium2"
)

// TemplateOptions describes a template with one table anchored at A1.
// Cell values starting with "=" are written as formulas.
type TemplateOptions struct {
	Sheet   string
	Table   string
	Headers []string
	// Sample data rows. A table always has at least one, blank if none are given.
	Rows [][]string
	// Cells outside the table, keyed by cell name.
	Cells map[string]string
}

// DefaultOptions returns an empty three-column PersonalDetails table on the Details sheet.
func DefaultOptions() TemplateOptions {
	return TemplateOptions{
		Sheet:   DefaultSheet,
		Table:   DefaultTable,
		Headers: []string{"Name", "Surname", "DateOfBirth"},
	}
}

// NewFile builds the template in memory. Callers own the returned file.
func NewFile(t *testing.T, opts TemplateOptions) *excelize.File {
	t.Helper()

	if opts.Sheet == "" {
		opts.Sheet = DefaultSheet
	}
	if opts.Table == "" {
		opts.Table = DefaultTable
	}

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.SetSheetName("Sheet1", opts.Sheet))

	for col, header := range opts.Headers {
		setCell(t, f, opts.Sheet, cell(t, col+1, 1), header)
	}
	for i, row := range opts.Rows {
		for col, value := range row {
			setCell(t, f, opts.Sheet, cell(t, col+1, i+2), value)
		}
	}
	for name, value := range opts.Cells {
		setCell(t, f, opts.Sheet, name, value)
	}

	bottom := max(len(opts.Rows), 1) + 1
	ref := fmt.Sprintf("A1:%s", cell(t, max(len(opts.Headers), 1), bottom))

	require.NoError(t, f.AddTable(opts.Sheet, &excelize.Table{
		Range:     ref,
		Name:      opts.Table,
		StyleName: TableStyle,
	}))

	return f
}

// Bytes serializes f.
func Bytes(t *testing.T, f *excelize.File) []byte {
	t.Helper()

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// Template builds and serializes a template.
func Template(t *testing.T, opts TemplateOptions) []byte {
	t.Helper()
	return Bytes(t, NewFile(t, opts))
}

// Open parses workbook bytes for assertions.
func Open(t *testing.T, data []byte) *excelize.File {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// TableRange returns the range of the named table on sheet.
func TableRange(t *testing.T, f *excelize.File, sheet, table string) string {
	t.Helper()

	tables, err := f.GetTables(sheet)
	require.NoError(t, err)
	for _, tbl := range tables {
		if tbl.Name == table {
			return tbl.Range
		}
	}
	require.Failf(t, "table not found", "no table %q on sheet %q", table, sheet)
	return ""
}

func setCell(t *testing.T, f *excelize.File, sheet, name, value string) {
	t.Helper()

	if len(value) > 1 && value[0] == '=' {
		require.NoError(t, f.SetCellFormula(sheet, name, value[1:]))
		return
	}
	require.NoError(t, f.SetCellStr(sheet, name, value))
}

func cell(t *testing.T, col, row int) string {
	t.Helper()

	name, err := excelize.CoordinatesToCellName(col, row)
	require.NoError(t, err)
	return name
}
