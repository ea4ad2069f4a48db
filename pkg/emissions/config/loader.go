package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/cognicore/emissions/pkg/emissions/report"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

// Environment variables naming the warehouse.
const (
	EnvDriver = "CO2DASH_DB_DRIVER"
	EnvDSN    = "CO2DASH_DB_DSN"
)

// DefaultDriver is used when no driver is configured.
const DefaultDriver = "sqlite"

// Loader loads the configuration file and environment and constructs components
type Loader struct {
	ConfigPath string // YAML file; empty uses defaults
	EnvPath    string // .env file; empty reads the process environment only
}

// Database locates the warehouse.
type Database struct {
	Driver string
	DSN    string
}

// Components holds all loaded configuration components
type Components struct {
	Report   report.Config
	Style    style.Style
	Database Database
}

// Load reads the configuration and returns validated components.
func (l *Loader) Load() (*Components, error) {
	f := Defaults()
	if l.ConfigPath != "" {
		loaded, err := LoadFile(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		f = *loaded
	}

	comp := &Components{}
	var err error
	if comp.Report, err = f.ReportConfig(); err != nil {
		return nil, fmt.Errorf("report config: %w", err)
	}
	if comp.Style, err = f.StyleConfig(); err != nil {
		return nil, fmt.Errorf("style config: %w", err)
	}

	if l.EnvPath != "" {
		// Variables already set in the process win over the file.
		if err := godotenv.Load(l.EnvPath); err != nil {
			return nil, fmt.Errorf("load env: %w", err)
		}
	}
	comp.Database = Database{Driver: os.Getenv(EnvDriver), DSN: os.Getenv(EnvDSN)}
	if comp.Database.Driver == "" {
		comp.Database.Driver = DefaultDriver
	}
	return comp, nil
}
