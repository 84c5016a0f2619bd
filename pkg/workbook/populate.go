package workbook

import (
	"log/slog"
	"strconv"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/records"
	"github.com/xuri/excelize/v2"
)

type TablePopulator interface {
	Populate(details []records.PersonalDetail, template []byte, sheet, table string) ([]byte, error)
}

type Options struct {
	// Structured logger using slog package
	Logger *slog.Logger
}

type populator struct {
	logger *slog.Logger
}

func New(opts Options) TablePopulator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &populator{
		logger: logger.With(slog.String("component", "workbook")),
	}
}

// Populate replaces the data rows of the named table with one row per
// record and returns the re-serialized workbook. Columns that no record
// field maps to keep their content; rows added past the template's sample
// rows copy the first data row's extra-column content and styles.
func (p *populator) Populate(details []records.PersonalDetail, template []byte, sheet, table string) ([]byte, error) {
	f, err := open(template)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	layout, err := locate(f, sheet, table)
	if err != nil {
		return nil, err
	}

	sampleRows := layout.dataRows()

	// OOXML tables need at least one body row.
	if err := p.resize(f, layout, max(len(details), 1)); err != nil {
		return nil, err
	}

	if err := writeRecords(f, layout, details); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, core.NewFormatError("serialize workbook", err)
	}

	p.logger.Debug("table populated",
		slog.String("sheet", layout.sheet),
		slog.String("table", layout.table.Name),
		slog.Int("records", len(details)),
		slog.Int("sampleRows", sampleRows),
		slog.String("range", layout.ref()),
	)

	return buf.Bytes(), nil
}

func (p *populator) resize(f *excelize.File, l *tableLayout, rows int) error {
	current := l.dataRows()
	firstRow := l.top + 1

	if err := f.DeleteTable(l.table.Name); err != nil {
		return core.NewFormatError("detach table", err)
	}

	switch {
	case rows > current:
		sample, err := readRow(f, l, firstRow)
		if err != nil {
			return err
		}
		if err := f.InsertRows(l.sheet, l.bottom+1, rows-current); err != nil {
			return core.NewFormatError("insert table rows", err)
		}
		for row := l.bottom + 1; row <= l.top+rows; row++ {
			if err := sample.copyTo(f, l, row, row-firstRow); err != nil {
				return err
			}
		}
	case rows < current:
		for range current - rows {
			if err := f.RemoveRow(l.sheet, l.top+rows+1); err != nil {
				return core.NewFormatError("remove table row", err)
			}
		}
	}

	l.bottom = l.top + rows

	err := f.AddTable(l.sheet, &excelize.Table{
		Range:             l.ref(),
		Name:              l.table.Name,
		StyleName:         l.table.StyleName,
		ShowColumnStripes: l.table.ShowColumnStripes,
		ShowFirstColumn:   l.table.ShowFirstColumn,
		ShowHeaderRow:     l.table.ShowHeaderRow,
		ShowLastColumn:    l.table.ShowLastColumn,
		ShowRowStripes:    l.table.ShowRowStripes,
	})
	if err != nil {
		return core.NewFormatError("reattach table", err)
	}

	return nil
}

func writeRecords(f *excelize.File, l *tableLayout, details []records.PersonalDetail) error {
	if len(details) == 0 {
		for _, c := range l.columns {
			if c.field == "" {
				continue
			}
			if err := f.SetCellStr(l.sheet, cellName(c.index, l.top+1), ""); err != nil {
				return core.NewFormatError("clear placeholder row", err)
			}
		}
		return nil
	}

	for i, d := range details {
		row := l.top + 1 + i
		for _, c := range l.columns {
			if c.field == "" {
				continue
			}
			if err := f.SetCellStr(l.sheet, cellName(c.index, row), d.Value(c.field)); err != nil {
				return core.NewFormatError("write record", err)
			}
		}
	}

	return nil
}

type sampleCell struct {
	style   int
	formula string
	value   string
	kind    excelize.CellType
}

type sampleRow []sampleCell

func readRow(f *excelize.File, l *tableLayout, row int) (sampleRow, error) {
	out := make(sampleRow, len(l.columns))
	for i, c := range l.columns {
		name := cellName(c.index, row)

		style, err := f.GetCellStyle(l.sheet, name)
		if err != nil {
			return nil, core.NewFormatError("read sample row style", err)
		}
		out[i].style = style

		if c.field != "" {
			continue
		}

		if out[i].formula, err = f.GetCellFormula(l.sheet, name); err != nil {
			return nil, core.NewFormatError("read sample row formula", err)
		}
		if out[i].value, err = f.GetCellValue(l.sheet, name, excelize.Options{RawCellValue: true}); err != nil {
			return nil, core.NewFormatError("read sample row value", err)
		}
		if out[i].kind, err = f.GetCellType(l.sheet, name); err != nil {
			return nil, core.NewFormatError("read sample row type", err)
		}
	}
	return out, nil
}

// copyTo writes the sample row's styles and extra-column content to row,
// shifting formulas by offset rows.
func (s sampleRow) copyTo(f *excelize.File, l *tableLayout, row, offset int) error {
	for i, c := range l.columns {
		cell := s[i]
		name := cellName(c.index, row)

		if cell.style != 0 {
			if err := f.SetCellStyle(l.sheet, name, name, cell.style); err != nil {
				return core.NewFormatError("copy cell style", err)
			}
		}

		if c.field != "" {
			continue
		}

		var err error
		switch {
		case cell.formula != "":
			err = f.SetCellFormula(l.sheet, name, shiftFormula(cell.formula, offset))
		case cell.value == "":
		case cell.kind == excelize.CellTypeBool:
			err = f.SetCellBool(l.sheet, name, cell.value == "1" || cell.value == "TRUE")
		case cell.kind == excelize.CellTypeUnset || cell.kind == excelize.CellTypeNumber:
			if n, perr := strconv.ParseFloat(cell.value, 64); perr == nil {
				err = f.SetCellFloat(l.sheet, name, n, -1, 64)
			} else {
				err = f.SetCellStr(l.sheet, name, cell.value)
			}
		default:
			err = f.SetCellStr(l.sheet, name, cell.value)
		}
		if err != nil {
			return core.NewFormatError("copy extra column", err)
		}
	}
	return nil
}
