package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
)

// Store is an in-memory implementation of store.Store for tests and
// file-backed dashboards.
type Store struct {
	mu      sync.RWMutex
	rows    []record.Record
	index   map[factKey]int
	closed  bool
	nextCty int64
	ids     map[string]int64
}

type factKey struct {
	indicator string
	country   string
	year      int
}

// New creates a store holding records.
func New(records ...record.Record) (*Store, error) {
	s := &Store{index: make(map[factKey]int), ids: make(map[string]int64), nextCty: 1}
	if err := s.Import(context.Background(), records); err != nil {
		return nil, err
	}
	return s, nil
}

// Close implements store.Store. Later calls fail with ErrStoreUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Import implements store.Store.
func (s *Store) Import(ctx context.Context, records []record.Record) error {
	for i, r := range records {
		if err := r.Validate(i + 1); err != nil {
			return err
		}
		if r.CountryCode == "" {
			return internalerr.Invalid(record.ColCountryCode, "", i+1)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return internalerr.ErrStoreUnavailable
	}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.CountryID = s.countryID(r)
		s.relabel(r)
		k := factKey{indicator: r.IndicatorCode, country: r.CountryCode, year: r.Year}
		if i, ok := s.index[k]; ok {
			s.rows[i] = r
			continue
		}
		s.index[k] = len(s.rows)
		s.rows = append(s.rows, r)
	}
	return nil
}

// relabel applies r's country attributes to every stored row of that
// country, as a shared country dimension row would.
func (s *Store) relabel(r record.Record) {
	for i := range s.rows {
		if s.rows[i].CountryCode != r.CountryCode {
			continue
		}
		s.rows[i].CountryName = r.CountryName
		s.rows[i].Region = r.Region
		s.rows[i].IncomeGroup = r.IncomeGroup
	}
}

func (s *Store) countryID(r record.Record) int64 {
	if id, ok := s.ids[r.CountryCode]; ok {
		return id
	}
	id := r.CountryID
	if id == 0 {
		id = s.nextCty
	}
	if id >= s.nextCty {
		s.nextCty = id + 1
	}
	s.ids[r.CountryCode] = id
	return id
}

// Records implements store.Source. Rows come back in import order.
func (s *Store) Records(ctx context.Context) (*record.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	return record.NewTable(s.rows), nil
}

// Years implements store.Store.
func (s *Store) Years(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	seen := make(map[int]struct{})
	var years []int
	for _, r := range s.rows {
		if _, ok := seen[r.Year]; !ok {
			seen[r.Year] = struct{}{}
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)
	return years, nil
}
