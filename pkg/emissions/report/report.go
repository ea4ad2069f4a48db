// Package report runs aggregation, ranking and rendering in the fixed
// dashboard order and collects the resulting charts.
package report

import (
	"fmt"
	"log"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/emissions/pkg/emissions/aggregate"
	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/rank"
	"github.com/cognicore/emissions/pkg/emissions/record"
	"github.com/cognicore/emissions/pkg/emissions/render"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

// Slot names, in dashboard order.
const (
	TrendIncomeGroup        = "trend-income-group"
	TrendRegion             = "trend-region"
	DistributionIncomeGroup = "distribution-income-group"
	TopRegion               = "top-region"
	BottomRegion            = "bottom-region"
	TopIncomeGroup          = "top-income-group"
	BottomIncomeGroup       = "bottom-income-group"
)

const emissionAxis = "CO2 Emission (metric tons per capita)"

// Chart is one dashboard slot. Image is empty when Err is set.
type Chart struct {
	Name  string
	Title string
	Image []byte
	Text  string
	Err   error
}

// Failed reports whether the chart could not be built.
func (c Chart) Failed() bool { return c.Err != nil }

// Report is the ordered output of one assembly.
type Report struct {
	ID     string
	Year   int
	Charts []Chart
}

// Chart returns the slot called name.
func (r *Report) Chart(name string) (Chart, bool) {
	for _, c := range r.Charts {
		if c.Name == name {
			return c, true
		}
	}
	return Chart{}, false
}

// Assembler builds reports. It holds no per-report state, so one value can
// serve concurrent callers as long as each passes its own table.
type Assembler struct {
	Config Config
	Style  style.Style
	Logger *log.Logger // nil uses the standard logger
}

// New validates cfg and st and returns an Assembler.
func New(cfg Config, st style.Style) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{Config: cfg, Style: st}, nil
}

// slot is a planned chart: its title and how to draw it.
type slot struct {
	name  string
	title string
	build func(t *record.Table) ([]byte, error)
}

// Slots lists the slot names a report built with this configuration
// contains, in order.
func (a *Assembler) Slots() []string {
	var names []string
	for _, s := range a.plan(0) {
		names = append(names, s.name)
	}
	return names
}

// Year resolves the report year for t.
func (a *Assembler) Year(t *record.Table) int {
	if a.Config.TargetYear > 0 {
		return a.Config.TargetYear
	}
	year, _ := t.LatestCompleteYear(record.Region, a.Config.Regions)
	return year
}

// Assemble builds every chart from t. A failing chart never stops the
// others; what happens to it is decided by Config.OnFailure.
func (a *Assembler) Assemble(t *record.Table) *Report {
	rep := &Report{ID: ulid.Make().String(), Year: a.Year(t)}
	for _, s := range a.plan(rep.Year) {
		c := a.run(rep.ID, s, t)
		if c.Failed() && a.Config.OnFailure == Omit {
			continue
		}
		rep.Charts = append(rep.Charts, c)
	}
	return rep
}

// Render builds the single slot called name. It fails with ErrNotFound for
// a slot the configuration does not include.
func (a *Assembler) Render(t *record.Table, name string) (Chart, error) {
	year := a.Year(t)
	for _, s := range a.plan(year) {
		if s.name == name {
			c := a.run(ulid.Make().String(), s, t)
			return c, c.Err
		}
	}
	return Chart{}, fmt.Errorf("%w: chart %q", internalerr.ErrNotFound, name)
}

func (a *Assembler) run(id string, s slot, t *record.Table) Chart {
	c := Chart{Name: s.name, Title: s.title}
	img, err := s.build(t)
	if err != nil {
		c.Err = fmt.Errorf("%s: %w", s.name, err)
		c.Text = c.Err.Error()
		a.logf("report %s: chart %s failed: %v", id, s.name, err)
		return c
	}
	c.Image = img
	return c
}

func (a *Assembler) logf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (a *Assembler) plan(year int) []slot {
	cfg := a.Config
	slots := []slot{
		a.trend(TrendIncomeGroup, record.IncomeGroup, cfg.IncomeGroups, render.Labels{
			Title:  "CO2 Emissions by Income Group (per Year)",
			X:      "Year",
			Y:      cfg.Statistic.Label() + " Emissions (metric tons per capita)",
			Legend: record.IncomeGroup.Label(),
		}),
		a.trend(TrendRegion, record.Region, cfg.Regions, render.Labels{
			Title:  "Trend of CO2 Emissions by Region (Per Year)",
			X:      "Year",
			Y:      cfg.Statistic.Label() + " Emissions",
			Legend: record.Region.Label(),
		}),
	}
	if cfg.IncludeDistribution {
		slots = append(slots, a.distribution(year))
	}
	return append(slots,
		a.ranking(TopRegion, year, record.Region, rank.Descending, cfg.TopRegion, cfg.Regions),
		a.ranking(BottomRegion, year, record.Region, rank.Ascending, cfg.TopRegion, cfg.Regions),
		a.ranking(TopIncomeGroup, year, record.IncomeGroup, rank.Descending, cfg.TopIncomeGroup, cfg.IncomeGroups),
		a.ranking(BottomIncomeGroup, year, record.IncomeGroup, rank.Ascending, cfg.TopIncomeGroup, cfg.IncomeGroups),
	)
}

// known drops records without a value for d and rejects values outside allowed.
func known(t *record.Table, d record.Dimension, allowed []string) (*record.Table, error) {
	t = t.Filter(func(r record.Record) bool { return d.Of(r) != "" })
	if err := t.Check(d, allowed); err != nil {
		return nil, err
	}
	return t, nil
}

func (a *Assembler) trend(name string, d record.Dimension, allowed []string, labels render.Labels) slot {
	r := render.Trend{Style: a.Style, Labels: labels}
	return slot{name: name, title: labels.Title, build: func(t *record.Table) ([]byte, error) {
		t, err := known(t, d, allowed)
		if err != nil {
			return nil, err
		}
		stats, err := aggregate.ByYear(t, d, a.Config.Statistic)
		if err != nil {
			return nil, err
		}
		return r.Render(stats)
	}}
}

func (a *Assembler) distribution(year int) slot {
	d := record.IncomeGroup
	labels := render.Labels{
		Title:  fmt.Sprintf("CO2 Emissions by %s (%d)", d.Label(), year),
		Legend: d.Label(),
	}
	r := render.Distribution{Style: a.Style, Labels: labels}
	return slot{name: DistributionIncomeGroup, title: labels.Title, build: func(t *record.Table) ([]byte, error) {
		t, err := known(t.Year(year), d, a.Config.IncomeGroups)
		if err != nil {
			return nil, err
		}
		stats, err := aggregate.ByYear(t, d, a.Config.Statistic)
		if err != nil {
			return nil, err
		}
		return r.Render(stats)
	}}
}

func (a *Assembler) ranking(name string, year int, d record.Dimension, dir rank.Direction, n int, groups []string) slot {
	labels := render.Labels{
		Title:  fmt.Sprintf("%s %d CO2 Emissions per %s in %d", dir.Word(), n, d.Label(), year),
		X:      d.Label() + "s",
		Y:      emissionAxis,
		Legend: "Countries",
	}
	r := render.Ranking{Style: a.Style, Labels: labels, Groups: groups, PerGroup: n}
	q := rank.Query{Year: year, Dimension: d, Direction: dir, PerGroup: n, Groups: groups}
	return slot{name: name, title: labels.Title, build: func(t *record.Table) ([]byte, error) {
		entries, err := rank.Rank(t, q)
		if err != nil {
			return nil, err
		}
		return r.Render(entries)
	}}
}
