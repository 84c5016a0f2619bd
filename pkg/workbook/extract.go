package workbook

import (
	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/records"
)

// Extract reads the records held by the named table. A table whose only
// data row is blank holds zero records.
func Extract(data []byte, sheet, table string) ([]records.PersonalDetail, error) {
	f, err := open(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	layout, err := locate(f, sheet, table)
	if err != nil {
		return nil, err
	}

	out := make([]records.PersonalDetail, 0, layout.dataRows())
	for row := layout.top + 1; row <= layout.bottom; row++ {
		values := make(map[string]string, len(records.Fields))
		for _, c := range layout.columns {
			if c.field == "" {
				continue
			}
			v, err := f.GetCellValue(layout.sheet, cellName(c.index, row))
			if err != nil {
				return nil, core.NewFormatError("read table row", err)
			}
			values[c.field] = v
		}
		out = append(out, records.FromValues(values))
	}

	if len(out) == 1 && out[0].IsZero() {
		return out[:0], nil
	}
	return out, nil
}
