// Package rank extracts the highest or lowest emitters of one year within
// each group of a category dimension.
package rank

import (
	"fmt"
	"sort"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
)

// Direction selects bottom-N (Ascending) or top-N (Descending).
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// ParseDirection converts a configuration value into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Ascending, Descending:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w: direction %q (want ascending or descending)", internalerr.ErrInvalidConfig, s)
}

// Word is "Top" or "Bottom", as used in chart titles.
func (d Direction) Word() string {
	if d == Ascending {
		return "Bottom"
	}
	return "Top"
}

// Query describes one ranking run
type Query struct {
	Year      int
	Dimension record.Dimension
	Direction Direction
	PerGroup  int      // entries kept per group
	Groups    []string // output order of groups; every record's group must be listed
}

// Entry is one ranked record
type Entry struct {
	Group    string
	Position int // 1-based within Group
	Country  string
	Emission float64
}

// Rank filters t to q.Year, orders each group's records by emission in
// q.Direction and keeps the first q.PerGroup of each. Records with equal
// emission keep their load order. Entries are returned group by group in
// q.Groups order; a listed group with no records contributes nothing.
func Rank(t *record.Table, q Query) ([]Entry, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	year := t.Year(q.Year)
	if err := year.Check(q.Dimension, q.Groups); err != nil {
		return nil, err
	}

	byGroup := make(map[string][]record.Record, len(q.Groups))
	for i := 0; i < year.Len(); i++ {
		r := year.At(i)
		g := q.Dimension.Of(r)
		byGroup[g] = append(byGroup[g], r)
	}

	var out []Entry
	for _, g := range q.Groups {
		rows := byGroup[g]
		if len(rows) == 0 {
			continue
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if q.Direction == Ascending {
				return rows[i].Emission < rows[j].Emission
			}
			return rows[i].Emission > rows[j].Emission
		})
		if len(rows) > q.PerGroup {
			rows = rows[:q.PerGroup]
		}
		for i, r := range rows {
			out = append(out, Entry{
				Group:    g,
				Position: i + 1,
				Country:  r.CountryName,
				Emission: r.Emission,
			})
		}
	}
	return out, nil
}

func (q Query) validate() error {
	if !q.Dimension.Valid() {
		return fmt.Errorf("%w: dimension %q", internalerr.ErrInvalidInput, q.Dimension)
	}
	if q.Direction != Ascending && q.Direction != Descending {
		return fmt.Errorf("%w: direction %q", internalerr.ErrInvalidInput, q.Direction)
	}
	if q.PerGroup <= 0 {
		return fmt.Errorf("%w: per-group count %d", internalerr.ErrInvalidInput, q.PerGroup)
	}
	if len(q.Groups) == 0 {
		return fmt.Errorf("%w: no groups for %s", internalerr.ErrInvalidInput, q.Dimension)
	}
	return nil
}
