// Package ingest reads emission records from CSV, XLSX and JSONL exports.
//
// Headers are matched case-insensitively with underscores and spaces
// ignored, so "recorded_year", "RECORDED_YEAR" and "Recorded Year" all name
// the same column. Rows with an empty emission cell carry no observation and
// are skipped.
package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
)

// Indicator used when the input has no indicator columns.
const (
	DefaultIndicatorCode = "EN.ATM.CO2E.PC"
	DefaultIndicatorName = "CO2 emissions (metric tons per capita)"
)

// Required lists the columns every input must carry.
var Required = []string{
	record.ColCountryCode,
	record.ColCountryName,
	record.ColRegion,
	record.ColIncomeGroup,
	record.ColYear,
	record.ColEmission,
}

// aliases maps names used by other exports onto canonical columns.
var aliases = map[string]string{
	"year":        record.ColYear,
	"countryname": record.ColCountryName,
	"country":     record.ColCountryName,
	"value":       record.ColEmission,
}

// normalize folds a header to its lookup key.
func normalize(h string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		if r == '_' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// canonical maps a header to a known column, or "" if it is not one.
func canonical(h string) string {
	key := normalize(h)
	for _, c := range record.Columns {
		if normalize(c) == key {
			return c
		}
	}
	return aliases[key]
}

// fields is one input row keyed by canonical column.
type fields map[string]string

func checkColumns(has func(col string) bool) error {
	for _, col := range Required {
		if !has(col) {
			return internalerr.Missing(col)
		}
	}
	return nil
}

// decode converts one row. ok is false when the row has no emission value.
func decode(f fields, row int) (rec record.Record, ok bool, err error) {
	raw := strings.TrimSpace(f[record.ColEmission])
	if raw == "" {
		return record.Record{}, false, nil
	}
	emission, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return record.Record{}, false, internalerr.Invalid(record.ColEmission, raw, row)
	}

	yearRaw := strings.TrimSpace(f[record.ColYear])
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		// Spreadsheets often hand back whole numbers as "2020.0".
		v, ferr := strconv.ParseFloat(yearRaw, 64)
		if ferr != nil || v != float64(int(v)) {
			return record.Record{}, false, internalerr.Invalid(record.ColYear, yearRaw, row)
		}
		year = int(v)
	}

	var id int64
	if s := strings.TrimSpace(f[record.ColCountryID]); s != "" {
		if id, err = strconv.ParseInt(s, 10, 64); err != nil {
			return record.Record{}, false, internalerr.Invalid(record.ColCountryID, s, row)
		}
	}

	rec = record.Record{
		IndicatorCode: strings.TrimSpace(f[record.ColIndicatorCode]),
		IndicatorName: strings.TrimSpace(f[record.ColIndicatorName]),
		CountryID:     id,
		CountryCode:   strings.TrimSpace(f[record.ColCountryCode]),
		Region:        strings.TrimSpace(f[record.ColRegion]),
		IncomeGroup:   strings.TrimSpace(f[record.ColIncomeGroup]),
		CountryName:   strings.TrimSpace(f[record.ColCountryName]),
		Year:          year,
		Emission:      emission,
	}
	if rec.IndicatorCode == "" {
		rec.IndicatorCode, rec.IndicatorName = DefaultIndicatorCode, DefaultIndicatorName
	}
	if rec.CountryCode == "" {
		return record.Record{}, false, internalerr.Invalid(record.ColCountryCode, "", row)
	}
	if err := rec.Validate(row); err != nil {
		return record.Record{}, false, err
	}
	return rec, true, nil
}

// ReadFile picks a reader by file extension.
func ReadFile(path string) (*record.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVFile(path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, "")
	case ".jsonl", ".ndjson":
		return readJSONLFile(path)
	}
	return nil, fmt.Errorf("%w: unsupported file type %q", internalerr.ErrInvalidInput, path)
}
