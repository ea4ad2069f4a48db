package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
)

// header indexes canonical columns by cell position.
type header map[string]int

func parseHeader(cells []string) (header, error) {
	h := make(header, len(cells))
	for i, c := range cells {
		if col := canonical(c); col != "" {
			if _, dup := h[col]; !dup {
				h[col] = i
			}
		}
	}
	err := checkColumns(func(col string) bool {
		_, ok := h[col]
		return ok
	})
	return h, err
}

func (h header) fields(cells []string) fields {
	f := make(fields, len(h))
	for col, i := range h {
		if i < len(cells) {
			f[col] = cells[i]
		}
	}
	return f
}

// table decodes data rows. first is the row number of rows[0].
func (h header) table(rows [][]string, first int) (*record.Table, error) {
	out := make([]record.Record, 0, len(rows))
	for i, cells := range rows {
		rec, ok, err := decode(h.fields(cells), first+i)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return record.NewTable(out), nil
}

// ReadCSV reads a comma-separated export with a header row.
func ReadCSV(r io.Reader) (*record.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, internalerr.Missing(record.ColCountryCode)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	h, err := parseHeader(first)
	if err != nil {
		return nil, err
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return h.table(rows, 2)
}

func readCSVFile(path string) (*record.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadXLSX reads one worksheet of a workbook. An empty sheet name selects
// the first sheet.
func ReadXLSX(path, sheet string) (*record.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", internalerr.ErrInvalidInput, path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, internalerr.Missing(record.ColCountryCode)
	}

	h, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}
	return h.table(rows[1:], 2)
}
