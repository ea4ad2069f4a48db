package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/emissions/pkg/emissions/aggregate"
	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/report"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoaderAllEmpty(t *testing.T) {
	t.Setenv(EnvDriver, "")
	t.Setenv(EnvDSN, "")

	loader := Loader{}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}

	if !reflect.DeepEqual(comp.Report, report.DefaultConfig()) {
		t.Errorf("got report %+v, want defaults", comp.Report)
	}
	def := style.Default()
	if comp.Style.Width != def.Width || comp.Style.Layout != def.Layout || comp.Style.Fonts != def.Fonts {
		t.Errorf("got style %+v, want defaults", comp.Style)
	}
	if comp.Database.Driver != DefaultDriver || comp.Database.DSN != "" {
		t.Errorf("got database %+v", comp.Database)
	}
}

func TestLoadFilePartial(t *testing.T) {
	path := writeFile(t, "dash.yaml", `report:
  statistic: median
  target_year: 2020
  top_n:
    region: 2
  include_distribution: true
  on_failure: omit
  regions: [South Asia, Sub-Saharan Africa]
style:
  width: 800
  colors:
    South Asia: "#000000"
`)
	loader := Loader{ConfigPath: path}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rc := comp.Report
	if rc.Statistic != aggregate.Median || rc.TargetYear != 2020 || !rc.IncludeDistribution || rc.OnFailure != report.Omit {
		t.Errorf("got %+v", rc)
	}
	if rc.TopRegion != 2 {
		t.Errorf("got top region %d, want 2", rc.TopRegion)
	}
	if rc.TopIncomeGroup != 5 {
		t.Errorf("got top income group %d, want default 5", rc.TopIncomeGroup)
	}
	if want := []string{"South Asia", "Sub-Saharan Africa"}; !reflect.DeepEqual(rc.Regions, want) {
		t.Errorf("got regions %v, want %v", rc.Regions, want)
	}
	if !reflect.DeepEqual(rc.IncomeGroups, report.DefaultIncomeGroups) {
		t.Errorf("got income groups %v, want defaults", rc.IncomeGroups)
	}

	if comp.Style.Width != 800 || comp.Style.Height != 600 {
		t.Errorf("got size %dx%d, want 800x600", comp.Style.Width, comp.Style.Height)
	}
	if got := comp.Style.Palette.Color("South Asia"); got != (color.RGBA{0, 0, 0, 0xFF}) {
		t.Errorf("colour override not applied: %v", got)
	}
	if got, want := comp.Style.Palette.Color("High income"), style.DefaultPalette().Color("High income"); got != want {
		t.Errorf("default colour lost: got %v, want %v", got, want)
	}
}

func TestLoaderInvalid(t *testing.T) {
	cases := map[string]string{
		"statistic": "report:\n  statistic: mode\n",
		"top n":     "report:\n  top_n: {region: 0}\n",
		"policy":    "report:\n  on_failure: ignore\n",
		"size":      "style:\n  height: -5\n",
		"colour":    "style:\n  colors: {South Asia: blue}\n",
		"alpha":     "style:\n  max_alpha: 0.2\n  min_alpha: 0.6\n",
		"syntax":    "report: [\n",
	}
	for name, content := range cases {
		loader := Loader{ConfigPath: writeFile(t, "bad.yaml", content)}
		if _, err := loader.Load(); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("%s: got %v, want ErrInvalidConfig", name, err)
		}
	}
}

func TestLoaderNonExistentConfig(t *testing.T) {
	loader := Loader{ConfigPath: "/nonexistent/dash.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent config")
	}
}

func TestLoaderEnvFile(t *testing.T) {
	t.Setenv(EnvDriver, "")
	t.Setenv(EnvDSN, "")
	os.Unsetenv(EnvDriver)
	os.Unsetenv(EnvDSN)

	env := writeFile(t, ".env", "CO2DASH_DB_DRIVER=postgres\nCO2DASH_DB_DSN=postgres://dash@localhost/co2?sslmode=disable\n")
	loader := Loader{EnvPath: env}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Database{Driver: "postgres", DSN: "postgres://dash@localhost/co2?sslmode=disable"}
	if comp.Database != want {
		t.Errorf("got %+v, want %+v", comp.Database, want)
	}
}

func TestLoaderEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvDriver, "sqlite")
	t.Setenv(EnvDSN, "from-process.db")

	env := writeFile(t, ".env", "CO2DASH_DB_DSN=from-file.db\n")
	loader := Loader{EnvPath: env}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if comp.Database.DSN != "from-process.db" {
		t.Errorf("got DSN %q, want from-process.db", comp.Database.DSN)
	}
}
