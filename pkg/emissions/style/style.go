// Package style is the single rendering configuration shared by every chart:
// figure sizes, font sizes, bar layout and the category colour table.
package style

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/rank"
)

// FontSizes in points
type FontSizes struct {
	Title float64
	Axis  float64
	Tick  float64
	Value float64
}

// Style is immutable once built and safe to share between concurrent renders.
type Style struct {
	Width         int // trend and distribution charts, pixels
	Height        int
	RankingWidth  int
	RankingHeight int
	Fonts         FontSizes
	Layout        rank.Layout
	Palette       *Palette
}

// Default returns the dashboard style.
func Default() Style {
	return Style{
		Width:         1000,
		Height:        600,
		RankingWidth:  1400,
		RankingHeight: 800,
		Fonts:         FontSizes{Title: 15, Axis: 12, Tick: 10, Value: 8},
		Layout:        rank.DefaultLayout(),
		Palette:       DefaultPalette(),
	}
}

// Validate reports the first unusable setting.
func (s Style) Validate() error {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("%w: chart size %dx%d", internalerr.ErrInvalidConfig, s.Width, s.Height)
	case s.RankingWidth <= 0 || s.RankingHeight <= 0:
		return fmt.Errorf("%w: ranking chart size %dx%d", internalerr.ErrInvalidConfig, s.RankingWidth, s.RankingHeight)
	case s.Layout.BarWidth <= 0 || s.Layout.GroupSpacing < 0:
		return fmt.Errorf("%w: bar width %v, group spacing %v", internalerr.ErrInvalidConfig, s.Layout.BarWidth, s.Layout.GroupSpacing)
	case s.Layout.MinAlpha < 0 || s.Layout.MaxAlpha > 1 || s.Layout.MinAlpha > s.Layout.MaxAlpha:
		return fmt.Errorf("%w: alpha range [%v, %v]", internalerr.ErrInvalidConfig, s.Layout.MinAlpha, s.Layout.MaxAlpha)
	case s.Palette == nil:
		return fmt.Errorf("%w: no palette", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Palette assigns every category a fixed colour. Categories without an
// explicit entry get a colour derived from a hash of their name, so the
// same name always gets the same colour.
type Palette struct {
	named    map[string]color.RGBA
	fallback []color.RGBA
}

// cycle is the matplotlib "tab10" sequence.
var cycle = []string{
	"#1F77B4", "#FF7F0E", "#2CA02C", "#D62728", "#9467BD",
	"#8C564B", "#E377C2", "#7F7F7F", "#BCBD22", "#17BECF",
}

// DefaultColors is the built-in region and income group colour table.
var DefaultColors = map[string]string{
	"North America":              "#1F77B4",
	"Europe & Central Asia":      "#FF7F0E",
	"Middle East & North Africa": "#2CA02C",
	"East Asia & Pacific":        "#D62728",
	"Latin America & Caribbean":  "#9467BD",
	"South Asia":                 "#8C564B",
	"Sub-Saharan Africa":         "#E377C2",

	"Low income":          "#1F77B4",
	"Lower middle income": "#FF7F0E",
	"Upper middle income": "#2CA02C",
	"High income":         "#D62728",
}

// NewPalette parses a category -> "#RRGGBB" table.
func NewPalette(colors map[string]string) (*Palette, error) {
	p := &Palette{named: make(map[string]color.RGBA, len(colors))}
	for name, hex := range colors {
		c, err := ParseHex(hex)
		if err != nil {
			return nil, fmt.Errorf("colour for %q: %w", name, err)
		}
		p.named[name] = c
	}
	for _, hex := range cycle {
		c, _ := ParseHex(hex)
		p.fallback = append(p.fallback, c)
	}
	return p, nil
}

var defaultPalette = sync.OnceValue(func() *Palette {
	p, err := NewPalette(DefaultColors)
	if err != nil {
		panic(err)
	}
	return p
})

// DefaultPalette returns the shared built-in palette.
func DefaultPalette() *Palette { return defaultPalette() }

// With returns a copy of p with colors added or replaced.
func (p *Palette) With(colors map[string]string) (*Palette, error) {
	extra, err := NewPalette(colors)
	if err != nil {
		return nil, err
	}
	for name, c := range p.named {
		if _, ok := extra.named[name]; !ok {
			extra.named[name] = c
		}
	}
	return extra, nil
}

// Color returns the colour for category.
func (p *Palette) Color(category string) color.RGBA {
	if c, ok := p.named[category]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(category))
	return p.fallback[h.Sum32()%uint32(len(p.fallback))]
}

// Faded returns c with its alpha set to a (0..1), non-premultiplied.
func Faded(c color.RGBA, a float64) color.NRGBA {
	if a < 0 {
		a = 0
	} else if a > 1 {
		a = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a*255 + 0.5)}
}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: colour %q", internalerr.ErrInvalidConfig, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: colour %q", internalerr.ErrInvalidConfig, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

var goRegular = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// Font returns the Go Regular face used for go-chart text. The parsed font
// is read-only and shared.
func Font() (*truetype.Font, error) { return goRegular() }
