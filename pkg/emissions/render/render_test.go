package render

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/cognicore/emissions/pkg/emissions/aggregate"
	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/rank"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

var (
	_ Renderer[[]aggregate.Grouped] = Trend{}
	_ Renderer[[]aggregate.Grouped] = Distribution{}
	_ Renderer[[]rank.Entry]        = Ranking{}
)

func testStyle() style.Style {
	s := style.Default()
	s.Width, s.Height = 400, 300
	s.RankingWidth, s.RankingHeight = 480, 320
	return s
}

func decode(t *testing.T, img []byte, w, h int) {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("payload is not a PNG: %v", err)
	}
	if abs(cfg.Width-w) > 2 || abs(cfg.Height-h) > 2 {
		t.Errorf("image is %dx%d, want about %dx%d", cfg.Width, cfg.Height, w, h)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func trendData() []aggregate.Grouped {
	return []aggregate.Grouped{
		{Year: 2018, Category: "High income", Value: 9.1},
		{Year: 2019, Category: "High income", Value: 8.7},
		{Year: 2020, Category: "High income", Value: 8.0},
		{Year: 2019, Category: "Low income", Value: 0.2},
		{Year: 2020, Category: "Low income", Value: 0.25},
	}
}

func TestTrendRender(t *testing.T) {
	s := testStyle()
	r := Trend{Style: s, Labels: Labels{Title: "CO2 Emissions by Income Group (per Year)", X: "Year", Y: "Median Emissions"}}

	img, err := r.Render(trendData())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	decode(t, img, s.Width, s.Height)
}

func TestTrendRenderDegenerateRanges(t *testing.T) {
	s := testStyle()
	r := Trend{Style: s, Labels: Labels{Title: "one point"}}

	cases := map[string][]aggregate.Grouped{
		"single year": {{Year: 2020, Category: "South Asia", Value: 1.5}},
		"single year, several categories": {
			{Year: 2020, Category: "High income", Value: 8},
			{Year: 2020, Category: "Low income", Value: 0.2},
		},
		"all zero": {
			{Year: 2019, Category: "South Asia", Value: 0},
			{Year: 2020, Category: "South Asia", Value: 0},
		},
	}
	for name, data := range cases {
		img, err := r.Render(data)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		decode(t, img, s.Width, s.Height)
	}
}

func TestYearTicks(t *testing.T) {
	ticks := yearTicks(2019, 2021)
	if len(ticks) != 3 || ticks[0].Label != "2019" || ticks[2].Value != 2021 {
		t.Errorf("got %+v, want 2019..2021", ticks)
	}
	if got := len(yearTicks(1960, 2020)); got > maxYearTicks+1 {
		t.Errorf("got %d ticks for a long span, want at most %d", got, maxYearTicks+1)
	}
}

func TestRenderEmptyInputs(t *testing.T) {
	s := testStyle()

	img, err := Trend{Style: s, Labels: Labels{Title: "empty"}}.Render(nil)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	decode(t, img, s.Width, s.Height)

	img, err = Distribution{Style: s}.Render(nil)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	decode(t, img, s.Width, s.Height)

	img, err = Ranking{Style: s, Groups: []string{"South Asia"}, PerGroup: 3}.Render(nil)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	decode(t, img, s.RankingWidth, s.RankingHeight)
}

func TestTrendDoesNotMutateInput(t *testing.T) {
	data := trendData()
	before := append([]aggregate.Grouped(nil), data...)
	if _, err := (Trend{Style: testStyle()}).Render(data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := range data {
		if data[i] != before[i] {
			t.Fatalf("input changed at %d: %+v -> %+v", i, before[i], data[i])
		}
	}
}

func TestShares(t *testing.T) {
	stats := []aggregate.Grouped{
		{Category: "Low income", Value: 1},
		{Category: "Lower middle income", Value: 1},
		{Category: "Upper middle income", Value: 1},
		{Category: "High income", Value: 3.3},
	}
	shares := Shares(stats)
	if len(shares) != len(stats) {
		t.Fatalf("got %d shares, want %d", len(shares), len(stats))
	}

	pct, tenths := 0.0, 0
	for _, s := range shares {
		pct += s.Percent
		tenths += s.Tenths
	}
	if math.Abs(pct-100) > 0.1 {
		t.Errorf("percentages sum to %v, want 100", pct)
	}
	if tenths != 1000 {
		t.Errorf("rounded labels sum to %d tenths, want 1000", tenths)
	}
	if got := shares[3].Percent; math.Abs(got-3.3/6.3*100) > 1e-9 {
		t.Errorf("high income share = %v", got)
	}
	if label := shares[0].Label(); !strings.HasPrefix(label, "Low income ") || !strings.HasSuffix(label, "%") {
		t.Errorf("unexpected label %q", label)
	}
}

func TestSharesZeroTotal(t *testing.T) {
	if got := Shares([]aggregate.Grouped{{Category: "a", Value: 0}}); got != nil {
		t.Errorf("got %v, want nil", got)
	}
	img, err := Distribution{Style: testStyle()}.Render([]aggregate.Grouped{{Category: "a", Value: 0}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	decode(t, img, testStyle().Width, testStyle().Height)
}

func TestDistributionRender(t *testing.T) {
	s := testStyle()
	img, err := Distribution{Style: s, Labels: Labels{Title: "CO2 Emissions by Income Group (2020)"}}.Render([]aggregate.Grouped{
		{Year: 2020, Category: "High income", Value: 8},
		{Year: 2020, Category: "Low income", Value: 0.3},
		{Year: 2020, Category: "Upper middle income", Value: 0},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	decode(t, img, s.Width, s.Height)
}

func TestRankingRender(t *testing.T) {
	s := testStyle()
	groups := []string{"Europe & Central Asia", "South Asia", "Sub-Saharan Africa"}
	entries := []rank.Entry{
		{Group: "Europe & Central Asia", Position: 1, Country: "Kazakhstan", Emission: 11.8},
		{Group: "Europe & Central Asia", Position: 2, Country: "Russia", Emission: 11.2},
		{Group: "Europe & Central Asia", Position: 3, Country: "Czechia", Emission: 8.3},
		{Group: "Sub-Saharan Africa", Position: 1, Country: "South Africa", Emission: 6.7},
	}
	r := Ranking{
		Style:    s,
		Labels:   Labels{Title: "Top 3 CO2 Emissions per Region in 2020", X: "Regions", Y: "CO2 Emission (metric tons per capita)"},
		Groups:   groups,
		PerGroup: 3,
	}
	img, err := r.Render(entries)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	decode(t, img, s.RankingWidth, s.RankingHeight)
}

func TestRenderConcurrent(t *testing.T) {
	s := testStyle()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	imgs := make(chan []byte, 16)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			img, err := Trend{Style: s}.Render(trendData())
			errs <- err
			imgs <- img
		}()
		go func() {
			defer wg.Done()
			img, err := Ranking{Style: s, Groups: []string{"a"}, PerGroup: 2}.Render([]rank.Entry{{Group: "a", Position: 1, Country: "x", Emission: 1}})
			errs <- err
			imgs <- img
		}()
	}
	wg.Wait()
	close(errs)
	close(imgs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent render: %v", err)
		}
	}
	for img := range imgs {
		if _, err := png.DecodeConfig(bytes.NewReader(img)); err != nil {
			t.Fatalf("concurrent render produced a broken PNG: %v", err)
		}
	}
}

func TestDrawReleasesOnFailure(t *testing.T) {
	_, err := withSurface(func(w io.Writer) error {
		io.WriteString(w, "partial")
		panic("surface exploded")
	})
	if !errors.Is(err, internalerr.ErrRender) {
		t.Fatalf("panic: got %v, want ErrRender", err)
	}

	boom := errors.New("boom")
	_, err = withSurface(func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, internalerr.ErrRender) || !errors.Is(err, boom) {
		t.Fatalf("error: got %v, want ErrRender wrapping boom", err)
	}

	// A later chart must not see bytes from the failed ones.
	img, err := withSurface(func(w io.Writer) error {
		_, err := io.WriteString(w, "ok")
		return err
	})
	if err != nil || string(img) != "ok" {
		t.Fatalf("got %q, %v; want \"ok\"", img, err)
	}
}
