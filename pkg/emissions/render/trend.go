package render

import (
	"image/color"
	"io"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cognicore/emissions/pkg/emissions/aggregate"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

// maxYearTicks bounds the number of labelled years on the x axis.
const maxYearTicks = 12

// Trend draws one line per category across years.
type Trend struct {
	Style  style.Style
	Labels Labels
}

// Render implements Renderer for ByYear output.
func (r Trend) Render(stats []aggregate.Grouped) ([]byte, error) {
	return withSurface(func(w io.Writer) error {
		series := aggregate.Split(stats)
		if len(series) == 0 {
			return blank(w, r.Labels.Title, r.Style.Fonts.Title, r.Style.Width, r.Style.Height)
		}
		return r.paint(w, series)
	})
}

func (r Trend) paint(w io.Writer, series []aggregate.Series) error {
	font, err := style.Font()
	if err != nil {
		return err
	}

	first, last := math.MaxInt, math.MinInt
	top := 0.0
	lines := make([]chart.Series, 0, len(series))
	for _, s := range series {
		xs := make([]float64, len(s.Years))
		for i, y := range s.Years {
			xs[i] = float64(y)
			first = min(first, y)
			last = max(last, y)
		}
		for _, v := range s.Values {
			top = max(top, v)
		}

		c := toDrawing(r.Style.Palette.Color(s.Category))
		lines = append(lines, chart.ContinuousSeries{
			Name:    s.Category,
			XValues: xs,
			YValues: s.Values,
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 2,
				DotColor:    c,
				DotWidth:    4,
			},
		})
	}

	// go-chart rejects zero-width ranges and derives the x range from the
	// ticks, so a single year is padded on both the range and the ticks.
	if first == last {
		first, last = first-1, last+1
	}
	xr := &chart.ContinuousRange{Min: float64(first), Max: float64(last)}
	if top == 0 {
		top = 1
	}

	graph := chart.Chart{
		Title:      r.Labels.Title,
		TitleStyle: chart.Style{FontSize: r.Style.Fonts.Title},
		Width:      r.Style.Width,
		Height:     r.Style.Height,
		Font:       font,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:      r.Labels.X,
			NameStyle: chart.Style{FontSize: r.Style.Fonts.Axis},
			Style:     chart.Style{FontSize: r.Style.Fonts.Tick},
			Range:     xr,
			Ticks:     yearTicks(first, last),
		},
		YAxis: chart.YAxis{
			Name:      r.Labels.Y,
			NameStyle: chart.Style{FontSize: r.Style.Fonts.Axis},
			Style:     chart.Style{FontSize: r.Style.Fonts.Tick},
			Range:     &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph, chart.Style{FontSize: r.Style.Fonts.Tick})}

	return graph.Render(chart.PNG, w)
}

// yearTicks labels every year, or every k'th year when the span is long.
func yearTicks(first, last int) []chart.Tick {
	step := 1
	if n := last - first + 1; n > maxYearTicks {
		step = (n + maxYearTicks - 1) / maxYearTicks
	}
	var ticks []chart.Tick
	for y := first; y <= last; y += step {
		ticks = append(ticks, chart.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}
	return ticks
}

func toDrawing(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
