package report

import (
	"fmt"

	"github.com/cognicore/emissions/pkg/emissions/aggregate"
	"github.com/cognicore/emissions/pkg/emissions/internalerr"
)

// Policy decides what happens to a chart that failed to build.
type Policy string

const (
	Omit        Policy = "omit"        // drop the slot
	Placeholder Policy = "placeholder" // keep the slot with the error as caption
)

// DefaultRegions is the region order used on ranking axes.
var DefaultRegions = []string{
	"Europe & Central Asia",
	"Middle East & North Africa",
	"East Asia & Pacific",
	"Latin America & Caribbean",
	"South Asia",
	"Sub-Saharan Africa",
	"North America",
}

// DefaultIncomeGroups is the income group order used on ranking axes.
var DefaultIncomeGroups = []string{
	"High income",
	"Upper middle income",
	"Lower middle income",
	"Low income",
}

// Config selects what a report contains.
type Config struct {
	Statistic           aggregate.Statistic
	TargetYear          int // 0 picks the most recent complete year
	TopRegion           int
	TopIncomeGroup      int
	IncludeDistribution bool
	OnFailure           Policy
	Regions             []string
	IncomeGroups        []string
}

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Statistic:      aggregate.Mean,
		TopRegion:      3,
		TopIncomeGroup: 5,
		OnFailure:      Placeholder,
		Regions:        append([]string(nil), DefaultRegions...),
		IncomeGroups:   append([]string(nil), DefaultIncomeGroups...),
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Statistic != aggregate.Mean && c.Statistic != aggregate.Median:
		return fmt.Errorf("%w: statistic %q", internalerr.ErrInvalidConfig, c.Statistic)
	case c.TargetYear < 0:
		return fmt.Errorf("%w: target year %d", internalerr.ErrInvalidConfig, c.TargetYear)
	case c.TopRegion <= 0 || c.TopIncomeGroup <= 0:
		return fmt.Errorf("%w: top n must be positive (region %d, income group %d)",
			internalerr.ErrInvalidConfig, c.TopRegion, c.TopIncomeGroup)
	case c.OnFailure != Omit && c.OnFailure != Placeholder:
		return fmt.Errorf("%w: on_failure %q", internalerr.ErrInvalidConfig, c.OnFailure)
	case len(c.Regions) == 0 || len(c.IncomeGroups) == 0:
		return fmt.Errorf("%w: empty category enumeration", internalerr.ErrInvalidConfig)
	}
	if err := unique("regions", c.Regions); err != nil {
		return err
	}
	return unique("income_groups", c.IncomeGroups)
}

func unique(name string, values []string) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%w: %s lists %q twice", internalerr.ErrInvalidConfig, name, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}
