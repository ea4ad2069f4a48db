package render

import (
	"fmt"
	"io"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cognicore/emissions/pkg/emissions/aggregate"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

// Share is one slice of a distribution.
type Share struct {
	Category string
	Value    float64
	Percent  float64 // Value / total * 100
	Tenths   int     // Percent rounded to tenths; sums to 1000 across a pie
}

// Label is the text drawn on the slice.
func (s Share) Label() string {
	return fmt.Sprintf("%s %d.%d%%", s.Category, s.Tenths/10, s.Tenths%10)
}

// Shares computes each category's share of the total. Rounded tenths are
// assigned by largest remainder so the labels of one pie add up to exactly
// 100.0%. A non-positive total yields no shares.
func Shares(stats []aggregate.Grouped) []Share {
	total := 0.0
	for _, g := range stats {
		total += g.Value
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}

	out := make([]Share, len(stats))
	rest := make([]int, len(stats))
	assigned := 0
	for i, g := range stats {
		pct := g.Value / total * 100
		floor := int(math.Floor(pct * 10))
		out[i] = Share{Category: g.Category, Value: g.Value, Percent: pct, Tenths: floor}
		rest[i] = i
		assigned += floor
	}
	sort.SliceStable(rest, func(a, b int) bool {
		ra := out[rest[a]].Percent*10 - float64(out[rest[a]].Tenths)
		rb := out[rest[b]].Percent*10 - float64(out[rest[b]].Tenths)
		return ra > rb
	})
	for i := 0; assigned < 1000 && i < len(rest); i++ {
		out[rest[i]].Tenths++
		assigned++
	}
	return out
}

// Distribution draws a single-year breakdown as a pie.
type Distribution struct {
	Style  style.Style
	Labels Labels
}

// Render implements Renderer for a single year of grouped statistics.
func (r Distribution) Render(stats []aggregate.Grouped) ([]byte, error) {
	return withSurface(func(w io.Writer) error {
		var values []chart.Value
		for _, s := range Shares(stats) {
			if s.Value <= 0 {
				continue
			}
			values = append(values, chart.Value{
				Value: s.Value,
				Label: s.Label(),
				Style: chart.Style{
					FillColor:   toDrawing(r.Style.Palette.Color(s.Category)),
					StrokeColor: drawing.ColorWhite,
					FontSize:    r.Style.Fonts.Tick,
				},
			})
		}
		if len(values) == 0 {
			return blank(w, r.Labels.Title, r.Style.Fonts.Title, r.Style.Width, r.Style.Height)
		}

		font, err := style.Font()
		if err != nil {
			return err
		}
		pie := chart.PieChart{
			Title:      r.Labels.Title,
			TitleStyle: chart.Style{FontSize: r.Style.Fonts.Title},
			Width:      r.Style.Width,
			Height:     r.Style.Height,
			Font:       font,
			Values:     values,
		}
		return pie.Render(chart.PNG, w)
	})
}
