package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/emissions/pkg/emissions/aggregate"
	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/report"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

// File is the YAML layout of a dashboard configuration file.
type File struct {
	Report ReportSection `yaml:"report"`
	Style  StyleSection  `yaml:"style"`
}

// ReportSection selects the charts and the data they show.
type ReportSection struct {
	Statistic           string   `yaml:"statistic"`
	TargetYear          int      `yaml:"target_year"`
	TopN                TopN     `yaml:"top_n"`
	IncludeDistribution bool     `yaml:"include_distribution"`
	OnFailure           string   `yaml:"on_failure"`
	Regions             []string `yaml:"regions"`
	IncomeGroups        []string `yaml:"income_groups"`
}

// TopN is the ranking depth per grouping dimension.
type TopN struct {
	Region      int `yaml:"region"`
	IncomeGroup int `yaml:"income_group"`
}

// StyleSection holds rendering parameters.
type StyleSection struct {
	Width         int               `yaml:"width"`
	Height        int               `yaml:"height"`
	RankingWidth  int               `yaml:"ranking_width"`
	RankingHeight int               `yaml:"ranking_height"`
	BarWidth      float64           `yaml:"bar_width"`
	GroupSpacing  float64           `yaml:"group_spacing"`
	MaxAlpha      float64           `yaml:"max_alpha"`
	MinAlpha      float64           `yaml:"min_alpha"`
	FontSize      FontSize          `yaml:"font_size"`
	Colors        map[string]string `yaml:"colors"`
}

// FontSize in points
type FontSize struct {
	Title float64 `yaml:"title"`
	Axis  float64 `yaml:"axis"`
	Tick  float64 `yaml:"tick"`
	Value float64 `yaml:"value"`
}

// Defaults returns the file a missing configuration is equivalent to.
func Defaults() File {
	rc := report.DefaultConfig()
	st := style.Default()
	return File{
		Report: ReportSection{
			Statistic:    string(rc.Statistic),
			TopN:         TopN{Region: rc.TopRegion, IncomeGroup: rc.TopIncomeGroup},
			OnFailure:    string(rc.OnFailure),
			Regions:      rc.Regions,
			IncomeGroups: rc.IncomeGroups,
		},
		Style: StyleSection{
			Width:         st.Width,
			Height:        st.Height,
			RankingWidth:  st.RankingWidth,
			RankingHeight: st.RankingHeight,
			BarWidth:      st.Layout.BarWidth,
			GroupSpacing:  st.Layout.GroupSpacing,
			MaxAlpha:      st.Layout.MaxAlpha,
			MinAlpha:      st.Layout.MinAlpha,
			FontSize: FontSize{
				Title: st.Fonts.Title,
				Axis:  st.Fonts.Axis,
				Tick:  st.Fonts.Tick,
				Value: st.Fonts.Value,
			},
		},
	}
}

// LoadFile reads a YAML configuration. Keys absent from the file keep
// their default values.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := Defaults()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return &f, nil
}

// ReportConfig converts the report section and validates it.
func (f *File) ReportConfig() (report.Config, error) {
	stat, err := aggregate.ParseStatistic(f.Report.Statistic)
	if err != nil {
		return report.Config{}, err
	}
	rc := report.Config{
		Statistic:           stat,
		TargetYear:          f.Report.TargetYear,
		TopRegion:           f.Report.TopN.Region,
		TopIncomeGroup:      f.Report.TopN.IncomeGroup,
		IncludeDistribution: f.Report.IncludeDistribution,
		OnFailure:           report.Policy(f.Report.OnFailure),
		Regions:             f.Report.Regions,
		IncomeGroups:        f.Report.IncomeGroups,
	}
	return rc, rc.Validate()
}

// StyleConfig converts the style section and validates it.
func (f *File) StyleConfig() (style.Style, error) {
	st := style.Default()
	st.Width, st.Height = f.Style.Width, f.Style.Height
	st.RankingWidth, st.RankingHeight = f.Style.RankingWidth, f.Style.RankingHeight
	st.Layout.BarWidth = f.Style.BarWidth
	st.Layout.GroupSpacing = f.Style.GroupSpacing
	st.Layout.MaxAlpha = f.Style.MaxAlpha
	st.Layout.MinAlpha = f.Style.MinAlpha
	st.Fonts = style.FontSizes{
		Title: f.Style.FontSize.Title,
		Axis:  f.Style.FontSize.Axis,
		Tick:  f.Style.FontSize.Tick,
		Value: f.Style.FontSize.Value,
	}
	if len(f.Style.Colors) > 0 {
		p, err := st.Palette.With(f.Style.Colors)
		if err != nil {
			return style.Style{}, err
		}
		st.Palette = p
	}
	return st, st.Validate()
}
