// Package render turns aggregated and ranked emissions into static PNG charts.
//
// Every call to Render draws on its own surface, so renderers may be used
// from concurrent requests. Empty input is not an error: it produces a
// titled chart with no axes or series.
package render

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
)

// Renderer draws data of type T into a PNG payload.
type Renderer[T any] interface {
	Render(data T) ([]byte, error)
}

// Labels are the texts placed around a chart.
type Labels struct {
	Title  string
	X      string
	Y      string
	Legend string
}

var buffers = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// surface is the drawing context for exactly one chart.
type surface struct {
	buf *bytes.Buffer
}

func acquire() *surface {
	b := buffers.Get().(*bytes.Buffer)
	b.Reset()
	return &surface{buf: b}
}

func (s *surface) release() {
	if s.buf == nil {
		return
	}
	s.buf.Reset()
	buffers.Put(s.buf)
	s.buf = nil
}

// withSurface runs paint against a fresh surface and returns a copy of what was
// written. The surface is released on every path, including panics raised
// inside the plotting libraries.
func withSurface(paint func(w io.Writer) error) (img []byte, err error) {
	s := acquire()
	defer s.release()
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("%w: %v", internalerr.ErrRender, p)
		}
	}()

	if err := paint(s.buf); err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrRender, err)
	}
	img = make([]byte, s.buf.Len())
	copy(img, s.buf.Bytes())
	return img, nil
}

// pxToLength converts a pixel size to the length gonum's PNG canvas needs
// to produce that many pixels at its default resolution.
func pxToLength(px int) vg.Length {
	return vg.Length(float64(px) * vg.Inch.Points() / 96)
}

// blank writes a titled chart without axes.
func blank(w io.Writer, title string, titleSize float64, width, height int) error {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(titleSize)
	p.HideAxes()

	wt, err := p.WriterTo(pxToLength(width), pxToLength(height), "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
