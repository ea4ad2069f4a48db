package style

import (
	"errors"
	"image/color"
	"testing"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
)

func TestParseHex(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#1F77B4", color.RGBA{0x1F, 0x77, 0xB4, 0xFF}, true},
		{"ff7f0e", color.RGBA{0xFF, 0x7F, 0x0E, 0xFF}, true},
		{" #000000 ", color.RGBA{0, 0, 0, 0xFF}, true},
		{"#12345", color.RGBA{}, false},
		{"#GGGGGG", color.RGBA{}, false},
	}
	for _, tc := range cases {
		got, err := ParseHex(tc.in)
		if tc.ok && err != nil {
			t.Errorf("ParseHex(%q): %v", tc.in, err)
			continue
		}
		if !tc.ok {
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("ParseHex(%q) error = %v, want ErrInvalidConfig", tc.in, err)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPaletteNamedAndFallback(t *testing.T) {
	p := DefaultPalette()
	if got, want := p.Color("South Asia"), (color.RGBA{0x8C, 0x56, 0x4B, 0xFF}); got != want {
		t.Errorf("South Asia = %v, want %v", got, want)
	}

	a := p.Color("Antarctica")
	if a != p.Color("Antarctica") {
		t.Error("fallback colour is not stable")
	}
	found := false
	for _, c := range p.fallback {
		if c == a {
			found = true
		}
	}
	if !found {
		t.Errorf("fallback colour %v is not from the cycle", a)
	}
}

func TestPaletteWith(t *testing.T) {
	base := DefaultPalette()
	p, err := base.With(map[string]string{"South Asia": "#000000", "Oceania": "#010203"})
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if got := p.Color("South Asia"); got != (color.RGBA{0, 0, 0, 0xFF}) {
		t.Errorf("override not applied: %v", got)
	}
	if got := p.Color("Oceania"); got != (color.RGBA{1, 2, 3, 0xFF}) {
		t.Errorf("addition not applied: %v", got)
	}
	if got, want := p.Color("High income"), base.Color("High income"); got != want {
		t.Errorf("inherited colour = %v, want %v", got, want)
	}
	if base.Color("South Asia") == p.Color("South Asia") {
		t.Error("With modified the shared palette")
	}

	if _, err := base.With(map[string]string{"x": "nope"}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("bad colour: got %v, want ErrInvalidConfig", err)
	}
}

func TestFaded(t *testing.T) {
	c := color.RGBA{10, 20, 30, 0xFF}
	if got := Faded(c, 0.7); got.A != 179 || got.R != 10 {
		t.Errorf("Faded(0.7) = %v", got)
	}
	if got := Faded(c, 2); got.A != 255 {
		t.Errorf("Faded clamps high, got %d", got.A)
	}
	if got := Faded(c, -1); got.A != 0 {
		t.Errorf("Faded clamps low, got %d", got.A)
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default style invalid: %v", err)
	}

	broken := []func(*Style){
		func(s *Style) { s.Width = 0 },
		func(s *Style) { s.RankingHeight = -1 },
		func(s *Style) { s.Layout.BarWidth = 0 },
		func(s *Style) { s.Layout.MinAlpha, s.Layout.MaxAlpha = 0.8, 0.2 },
		func(s *Style) { s.Palette = nil },
	}
	for i, mutate := range broken {
		s := Default()
		mutate(&s)
		if err := s.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("case %d: got %v, want ErrInvalidConfig", i, err)
		}
	}
}

func TestFont(t *testing.T) {
	f, err := Font()
	if err != nil || f == nil {
		t.Fatalf("Font() = %v, %v", f, err)
	}
}
