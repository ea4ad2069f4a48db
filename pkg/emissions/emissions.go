package emissions

import (
	"context"
	"fmt"
	"log"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
	"github.com/cognicore/emissions/pkg/emissions/report"
	"github.com/cognicore/emissions/pkg/emissions/store"
	"github.com/cognicore/emissions/pkg/emissions/style"
)

// Engine is the dashboard facade: it reads a snapshot from its source and
// hands it to the report assembler.
type Engine struct {
	source    store.Source
	assembler *report.Assembler
}

// Options configures an Engine
type Options struct {
	Source store.Source
	Report report.Config
	Style  style.Style
	Logger *log.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: no record source", internalerr.ErrInvalidConfig)
	}
	a, err := report.New(opts.Report, opts.Style)
	if err != nil {
		return nil, err
	}
	a.Logger = opts.Logger
	return &Engine{source: opts.Source, assembler: a}, nil
}

// Close cleanly shuts down the Engine and its source
func (e *Engine) Close() error {
	return e.source.Close()
}

// Snapshot reads the record table for one request.
func (e *Engine) Snapshot(ctx context.Context) (*record.Table, error) {
	return e.source.Records(ctx)
}

// Report builds every chart from a fresh snapshot.
func (e *Engine) Report(ctx context.Context) (*report.Report, error) {
	t, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.assembler.Assemble(t), nil
}

// Chart builds one slot from a fresh snapshot.
func (e *Engine) Chart(ctx context.Context, name string) (report.Chart, error) {
	t, err := e.Snapshot(ctx)
	if err != nil {
		return report.Chart{}, err
	}
	return e.assembler.Render(t, name)
}

// Slots lists the chart names a report contains, in order.
func (e *Engine) Slots() []string {
	return e.assembler.Slots()
}

// Year resolves the report year against a fresh snapshot.
func (e *Engine) Year(ctx context.Context) (int, error) {
	t, err := e.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return e.assembler.Year(t), nil
}
