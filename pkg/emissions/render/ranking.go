package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cognicore/emissions/pkg/emissions/rank"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

// Ranking draws ranked entries as bars clustered by group. Groups and
// PerGroup fix the slot layout so charts of different data line up.
type Ranking struct {
	Style    style.Style
	Labels   Labels
	Groups   []string
	PerGroup int
}

// Render implements Renderer for Rank output.
func (r Ranking) Render(entries []rank.Entry) ([]byte, error) {
	return withSurface(func(w io.Writer) error {
		bars, ticks := r.Style.Layout.Place(entries, r.Groups, r.PerGroup)
		if len(bars) == 0 {
			return blank(w, r.Labels.Title, r.Style.Fonts.Title, r.Style.RankingWidth, r.Style.RankingHeight)
		}
		p, err := r.plot(bars, ticks)
		if err != nil {
			return err
		}
		wt, err := p.WriterTo(pxToLength(r.Style.RankingWidth), pxToLength(r.Style.RankingHeight), "png")
		if err != nil {
			return err
		}
		_, err = wt.WriteTo(w)
		return err
	})
}

func (r Ranking) plot(bars []rank.Bar, ticks []rank.Tick) (*plot.Plot, error) {
	fonts := r.Style.Fonts

	p := plot.New()
	p.Title.Text = r.Labels.Title
	p.Title.TextStyle.Font.Size = vg.Points(fonts.Title)
	p.X.Label.Text = r.Labels.X
	p.X.Label.TextStyle.Font.Size = vg.Points(fonts.Axis)
	p.Y.Label.Text = r.Labels.Y
	p.Y.Label.TextStyle.Font.Size = vg.Points(fonts.Axis)

	marks := make([]plot.Tick, len(ticks))
	for i, t := range ticks {
		marks[i] = plot.Tick{Value: t.X, Label: t.Group}
	}
	p.X.Tick.Marker = plot.ConstantTicks(marks)
	p.X.Tick.Label.Font.Size = vg.Points(fonts.Tick)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	p.Add(grid)

	cols := &columns{width: r.Style.Layout.BarWidth}
	xys := make(plotter.XYs, len(bars))
	texts := make([]string, len(bars))
	top := 0.0
	for i, b := range bars {
		c := style.Faded(r.Style.Palette.Color(b.Group), b.Alpha)
		cols.bars = append(cols.bars, column{x: b.X, y: b.Emission, color: c})
		xys[i] = plotter.XY{X: b.X, Y: b.Emission}
		texts[i] = fmt.Sprintf("%.2f", b.Emission)
		top = math.Max(top, b.Emission)
		p.Legend.Add(b.Country, swatch{color: c})
	}
	p.Add(cols)

	values, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, err
	}
	for i := range values.TextStyle {
		values.TextStyle[i].Font.Size = vg.Points(fonts.Value)
		values.TextStyle[i].XAlign = draw.XCenter
		values.TextStyle[i].YAlign = draw.YBottom
	}
	p.Add(values)

	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = vg.Points(fonts.Tick)

	// Fix the axes after adding plotters, which widen them to their data.
	p.X.Min, p.X.Max = r.Style.Layout.Span(len(r.Groups), r.PerGroup)
	if top == 0 {
		top = 1
	}
	p.Y.Min, p.Y.Max = 0, top*1.12
	return p, nil
}

type column struct {
	x, y  float64
	color color.Color
}

// columns is a gonum plotter for bars at arbitrary x positions.
type columns struct {
	width float64
	bars  []column
}

// Plot implements plot.Plotter.
func (cs *columns) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, b := range cs.bars {
		x0, x1 := trX(b.x-cs.width/2), trX(b.x+cs.width/2)
		y0, y1 := trY(0), trY(b.y)
		pts := []vg.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
		c.FillPolygon(b.color, c.ClipPolygonXY(pts))
	}
}

// DataRange implements plot.DataRanger.
func (cs *columns) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	for _, b := range cs.bars {
		xmin = math.Min(xmin, b.x-cs.width/2)
		xmax = math.Max(xmax, b.x+cs.width/2)
		ymax = math.Max(ymax, b.y)
	}
	return xmin, xmax, 0, ymax
}

// swatch is a legend thumbnail filled with one bar's colour.
type swatch struct {
	color color.Color
}

// Thumbnail implements plot.Thumbnailer.
func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, pts)
}
