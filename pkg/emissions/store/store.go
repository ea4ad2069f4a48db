package store

import (
	"context"

	"github.com/cognicore/emissions/pkg/emissions/record"
)

// Source produces the joined record table charts are computed from.
// Every call returns a fresh snapshot owned by the caller.
type Source interface {
	Records(ctx context.Context) (*record.Table, error)
	Close() error
}

// Store is a Source that can also be loaded.
type Store interface {
	Source

	// Import upserts records. A record replaces an earlier one with the
	// same indicator, country and year.
	Import(ctx context.Context, records []record.Record) error

	// Years lists the years with at least one emission value, ascending.
	Years(ctx context.Context) ([]int, error)
}
