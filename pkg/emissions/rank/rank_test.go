package rank

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
)

var regions = []string{"Europe & Central Asia", "South Asia", "Sub-Saharan Africa"}

func rec(country, region string, year int, emission float64) record.Record {
	return record.Record{CountryName: country, Region: region, IncomeGroup: "Low income", Year: year, Emission: emission}
}

func emissions(es []Entry) []float64 {
	out := make([]float64, len(es))
	for i, e := range es {
		out[i] = e.Emission
	}
	return out
}

func TestRankStableTieBreak(t *testing.T) {
	tab := record.NewTable([]record.Record{
		rec("Bhutan", "South Asia", 2020, 2.0),
		rec("Nepal", "South Asia", 2020, 1.0),
		rec("Sri Lanka", "South Asia", 2020, 2.0),
	})

	got, err := Rank(tab, Query{Year: 2020, Dimension: record.Region, Direction: Ascending, PerGroup: 2, Groups: regions})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if want := []float64{1.0, 2.0}; !reflect.DeepEqual(emissions(got), want) {
		t.Fatalf("got %v, want %v", emissions(got), want)
	}
	if got[1].Country != "Bhutan" {
		t.Errorf("tie broken out of load order: got %s, want Bhutan", got[1].Country)
	}
	if got[0].Position != 1 || got[1].Position != 2 {
		t.Errorf("positions = %d,%d, want 1,2", got[0].Position, got[1].Position)
	}
}

func TestRankDescendingTies(t *testing.T) {
	tab := record.NewTable([]record.Record{
		rec("A", "South Asia", 2020, 5),
		rec("B", "South Asia", 2020, 7),
		rec("C", "South Asia", 2020, 5),
		rec("D", "South Asia", 2020, 5),
	})
	got, err := Rank(tab, Query{Year: 2020, Dimension: record.Region, Direction: Descending, PerGroup: 3, Groups: regions})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	var names []string
	for _, e := range got {
		names = append(names, e.Country)
	}
	if want := []string{"B", "A", "C"}; !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestRankCountPerGroup(t *testing.T) {
	tab := record.NewTable([]record.Record{
		rec("E1", "Europe & Central Asia", 2020, 9),
		rec("E2", "Europe & Central Asia", 2020, 8),
		rec("E3", "Europe & Central Asia", 2020, 7),
		rec("E4", "Europe & Central Asia", 2020, 6),
		rec("S1", "South Asia", 2020, 1),
		rec("S2", "South Asia", 2019, 50),
	})

	for k := 1; k <= 5; k++ {
		got, err := Rank(tab, Query{Year: 2020, Dimension: record.Region, Direction: Descending, PerGroup: k, Groups: regions})
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		counts := map[string]int{}
		for _, e := range got {
			counts[e.Group]++
		}
		if want := min(k, 4); counts["Europe & Central Asia"] != want {
			t.Errorf("k=%d: europe got %d entries, want %d", k, counts["Europe & Central Asia"], want)
		}
		if counts["South Asia"] != 1 {
			t.Errorf("k=%d: south asia got %d entries, want 1 (2019 excluded)", k, counts["South Asia"])
		}
		if counts["Sub-Saharan Africa"] != 0 {
			t.Errorf("k=%d: empty group produced entries", k)
		}
	}
}

func TestRankGroupOrderFollowsEnumeration(t *testing.T) {
	tab := record.NewTable([]record.Record{
		rec("Chad", "Sub-Saharan Africa", 2020, 0.1),
		rec("India", "South Asia", 2020, 1.8),
		rec("Norway", "Europe & Central Asia", 2020, 6.7),
	})
	order := []string{"South Asia", "Sub-Saharan Africa", "Europe & Central Asia"}
	got, err := Rank(tab, Query{Year: 2020, Dimension: record.Region, Direction: Descending, PerGroup: 3, Groups: order})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	var groups []string
	for _, e := range got {
		groups = append(groups, e.Group)
	}
	if !reflect.DeepEqual(groups, order) {
		t.Errorf("got %v, want %v", groups, order)
	}
}

func TestRankEmptyYear(t *testing.T) {
	tab := record.NewTable([]record.Record{rec("India", "South Asia", 2019, 1.8)})
	got, err := Rank(tab, Query{Year: 2020, Dimension: record.Region, Direction: Descending, PerGroup: 3, Groups: regions})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}

	got, err = Rank(nil, Query{Year: 2020, Dimension: record.Region, Direction: Ascending, PerGroup: 3, Groups: regions})
	if err != nil || len(got) != 0 {
		t.Errorf("nil table: got %v, %v", got, err)
	}
}

func TestRankUnknownCategory(t *testing.T) {
	tab := record.NewTable([]record.Record{
		rec("India", "South Asia", 2020, 1.8),
		rec("Atlantis", "Atlantic", 2020, 3.0),
		rec("Lemuria", "Indian Ocean", 2019, 3.0),
	})
	_, err := Rank(tab, Query{Year: 2020, Dimension: record.Region, Direction: Descending, PerGroup: 3, Groups: regions})
	if !errors.Is(err, internalerr.ErrUnknownCategory) {
		t.Fatalf("got %v, want ErrUnknownCategory", err)
	}
	var ie *internalerr.InputError
	if errors.As(err, &ie) && ie.Value != "Atlantic" {
		t.Errorf("error names %q, want Atlantic", ie.Value)
	}
}

func TestRankInvalidQuery(t *testing.T) {
	base := Query{Year: 2020, Dimension: record.Region, Direction: Descending, PerGroup: 3, Groups: regions}
	tests := []struct {
		name string
		mod  func(*Query)
	}{
		{"zero count", func(q *Query) { q.PerGroup = 0 }},
		{"bad direction", func(q *Query) { q.Direction = "sideways" }},
		{"bad dimension", func(q *Query) { q.Dimension = "continent" }},
		{"no groups", func(q *Query) { q.Groups = nil }},
	}
	for _, tt := range tests {
		q := base
		tt.mod(&q)
		if _, err := Rank(nil, q); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("%s: got %v, want ErrInvalidInput", tt.name, err)
		}
	}
}

func TestRankIdempotent(t *testing.T) {
	tab := record.NewTable([]record.Record{
		rec("A", "South Asia", 2020, 2),
		rec("B", "South Asia", 2020, 2),
		rec("C", "Europe & Central Asia", 2020, 3),
	})
	q := Query{Year: 2020, Dimension: record.Region, Direction: Ascending, PerGroup: 2, Groups: regions}
	first, _ := Rank(tab, q)
	second, _ := Rank(tab, q)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%v\n%v", first, second)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("ascending"); err != nil || d.Word() != "Bottom" {
		t.Errorf("ascending: got %v, %v", d, err)
	}
	if d, err := ParseDirection("descending"); err != nil || d.Word() != "Top" {
		t.Errorf("descending: got %v, %v", d, err)
	}
	if _, err := ParseDirection("up"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("up: got %v", err)
	}
}
