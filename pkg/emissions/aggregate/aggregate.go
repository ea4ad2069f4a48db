// Package aggregate computes central-tendency statistics of emissions grouped
// by year and one category dimension.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/aclements/go-moremath/stats"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
)

// Statistic selects how emissions within a partition are summarized.
type Statistic string

const (
	Mean   Statistic = "mean"
	Median Statistic = "median"
)

// ParseStatistic converts a configuration value into a Statistic.
func ParseStatistic(s string) (Statistic, error) {
	switch Statistic(s) {
	case Mean, Median:
		return Statistic(s), nil
	}
	return "", fmt.Errorf("%w: statistic %q (want mean or median)", internalerr.ErrInvalidConfig, s)
}

// Of summarizes xs. xs is not modified.
func (s Statistic) Of(xs []float64) float64 {
	if s == Median {
		// Quantile sorts a copy when the sample is not marked sorted.
		return stats.Sample{Xs: xs}.Quantile(0.5)
	}
	return stats.Mean(xs)
}

// Label is the axis wording for the statistic.
func (s Statistic) Label() string {
	if s == Median {
		return "Median"
	}
	return "Average"
}

// Grouped is the statistic for one (year, category) partition.
type Grouped struct {
	Year     int
	Category string
	Value    float64
	Count    int // records in the partition
}

type key struct {
	year int
	cat  string
}

// ByYear partitions t by (year, value of d) and summarizes each partition
// with stat. Results are ordered by category name, then year. Only
// observed pairs are returned; an empty table yields an empty result.
func ByYear(t *record.Table, d record.Dimension, stat Statistic) ([]Grouped, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: dimension %q", internalerr.ErrInvalidInput, d)
	}
	if _, err := ParseStatistic(string(stat)); err != nil {
		return nil, err
	}

	parts := make(map[key][]float64)
	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		k := key{year: r.Year, cat: d.Of(r)}
		parts[k] = append(parts[k], r.Emission)
	}

	keys := make([]key, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].cat == keys[j].cat {
			return keys[i].year < keys[j].year
		}
		return keys[i].cat < keys[j].cat
	})

	out := make([]Grouped, 0, len(keys))
	for _, k := range keys {
		xs := parts[k]
		out = append(out, Grouped{
			Year:     k.year,
			Category: k.cat,
			Value:    stat.Of(xs),
			Count:    len(xs),
		})
	}
	return out, nil
}

// Distribution summarizes a single year by category.
func Distribution(t *record.Table, year int, d record.Dimension, stat Statistic) ([]Grouped, error) {
	return ByYear(t.Year(year), d, stat)
}

// Pivot reshapes grouped statistics into year -> category -> value.
// Categories without data for a year are absent, not zero.
func Pivot(gs []Grouped) map[int]map[string]float64 {
	out := make(map[int]map[string]float64)
	for _, g := range gs {
		m := out[g.Year]
		if m == nil {
			m = make(map[string]float64)
			out[g.Year] = m
		}
		m[g.Category] = g.Value
	}
	return out
}

// Series is one category's values across years, in ascending year order.
type Series struct {
	Category string
	Years    []int
	Values   []float64
}

// Split groups ByYear output into one Series per category, keeping the
// category-then-year order.
func Split(gs []Grouped) []Series {
	var out []Series
	for _, g := range gs {
		if n := len(out); n == 0 || out[n-1].Category != g.Category {
			out = append(out, Series{Category: g.Category})
		}
		s := &out[len(out)-1]
		s.Years = append(s.Years, g.Year)
		s.Values = append(s.Values, g.Value)
	}
	return out
}
