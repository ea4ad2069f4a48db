// Package record holds the joined per-country, per-year emission rows that
// every chart is computed from.
package record

import (
	"math"
	"sort"
	"strconv"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
)

// Column names of the joined source table
const (
	ColIndicatorCode = "indicator_code"
	ColIndicatorName = "indicator_name"
	ColCountryID     = "country_id"
	ColCountryCode   = "country_code"
	ColRegion        = "region"
	ColIncomeGroup   = "income_group"
	ColCountryName   = "country_name"
	ColYear          = "recorded_year"
	ColEmission      = "emission"
)

// Columns lists the source columns in their canonical order.
var Columns = []string{
	ColIndicatorCode, ColIndicatorName, ColCountryID, ColCountryCode,
	ColRegion, ColIncomeGroup, ColCountryName, ColYear, ColEmission,
}

// Record is one emission observation for a country in a year.
// Emission is in metric tons per capita.
type Record struct {
	IndicatorCode string  `json:"indicator_code"`
	IndicatorName string  `json:"indicator_name"`
	CountryID     int64   `json:"country_id"`
	CountryCode   string  `json:"country_code"`
	Region        string  `json:"region"`
	IncomeGroup   string  `json:"income_group"`
	CountryName   string  `json:"country_name"`
	Year          int     `json:"recorded_year"`
	Emission      float64 `json:"emission"`
}

// Validate checks the numeric fields. row is only used for error labels.
func (r Record) Validate(row int) error {
	if r.Year <= 0 {
		return internalerr.Invalid(ColYear, strconv.Itoa(r.Year), row)
	}
	if math.IsNaN(r.Emission) || math.IsInf(r.Emission, 0) || r.Emission < 0 {
		return internalerr.Invalid(ColEmission, strconv.FormatFloat(r.Emission, 'g', -1, 64), row)
	}
	return nil
}

// Dimension is a categorical column records can be partitioned by.
type Dimension string

const (
	Region      Dimension = ColRegion
	IncomeGroup Dimension = ColIncomeGroup
)

// Of returns the value of dimension d for r.
func (d Dimension) Of(r Record) string {
	switch d {
	case Region:
		return r.Region
	case IncomeGroup:
		return r.IncomeGroup
	}
	return ""
}

// Label is the human readable name used in chart titles and legends.
func (d Dimension) Label() string {
	switch d {
	case Region:
		return "Region"
	case IncomeGroup:
		return "Income Group"
	}
	return string(d)
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	return d == Region || d == IncomeGroup
}

// Table is a read-only snapshot of records. A nil *Table is empty.
type Table struct {
	rows []Record
}

// NewTable copies rows into a new snapshot. Later changes to rows are not
// visible through the table.
func NewTable(rows []Record) *Table {
	cp := make([]Record, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// At returns the i'th record in load order.
func (t *Table) At(i int) Record {
	return t.rows[i]
}

// Records returns a copy of all records in load order.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	cp := make([]Record, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// Filter returns the records for which keep is true, in load order.
func (t *Table) Filter(keep func(Record) bool) *Table {
	out := &Table{}
	if t == nil {
		return out
	}
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Year returns the records observed in year.
func (t *Table) Year(year int) *Table {
	return t.Filter(func(r Record) bool { return r.Year == year })
}

// Years returns the distinct years in ascending order.
func (t *Table) Years() []int {
	if t == nil {
		return nil
	}
	seen := make(map[int]struct{})
	var years []int
	for _, r := range t.rows {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	sort.Ints(years)
	return years
}

// Categories returns the distinct values of d in order of first appearance.
func (t *Table) Categories(d Dimension) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		v := d.Of(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Check returns an input error naming the first value of d that is not in
// allowed. An empty allowed list accepts everything.
func (t *Table) Check(d Dimension, allowed []string) error {
	if len(allowed) == 0 || t == nil {
		return nil
	}
	known := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		known[v] = struct{}{}
	}
	for _, r := range t.rows {
		if v := d.Of(r); v != "" {
			if _, ok := known[v]; !ok {
				return internalerr.Unknown(string(d), v)
			}
		}
	}
	return nil
}

// LatestCompleteYear returns the most recent year in which every value in
// want has at least one record for dimension d. If no year is complete it
// falls back to the latest year present. ok is false for an empty table.
func (t *Table) LatestCompleteYear(d Dimension, want []string) (year int, ok bool) {
	years := t.Years()
	if len(years) == 0 {
		return 0, false
	}
	present := make(map[int]map[string]struct{}, len(years))
	for _, r := range t.rows {
		m := present[r.Year]
		if m == nil {
			m = make(map[string]struct{})
			present[r.Year] = m
		}
		m[d.Of(r)] = struct{}{}
	}
	for i := len(years) - 1; i >= 0; i-- {
		complete := true
		for _, v := range want {
			if _, ok := present[years[i]][v]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return years[i], true
		}
	}
	return years[len(years)-1], true
}
