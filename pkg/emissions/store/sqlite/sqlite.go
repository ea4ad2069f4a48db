package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
	"github.com/cognicore/emissions/pkg/emissions/store"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlStore implements store.Store on the indicator/country/fact schema.
type sqlStore struct {
	db     *sql.DB
	driver string
}

// OpenSQLite opens a SQLite warehouse with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	return Open(ctx, DriverSQLite, path)
}

// Open connects to a warehouse. driver is DriverSQLite or DriverPostgres;
// the schema is created if it does not exist.
func Open(ctx context.Context, driver, dsn string) (store.Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: driver %q", internalerr.ErrInvalidConfig, driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty %s dsn", internalerr.ErrInvalidConfig, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", internalerr.ErrStoreUnavailable, driver, err)
	}

	if driver == DriverSQLite {
		// Enable WAL mode for concurrent dashboard readers
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, err
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &sqlStore{db: db, driver: driver}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) initSchema(ctx context.Context) error {
	key := "INTEGER PRIMARY KEY"
	if s.driver == DriverPostgres {
		key = "BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS dim_indicator (
	indicator_id ` + key + `,
	indicator_code TEXT UNIQUE NOT NULL,
	indicator_name TEXT
)`,
		`CREATE TABLE IF NOT EXISTS dim_country (
	country_id ` + key + `,
	country_code TEXT UNIQUE NOT NULL,
	country_name TEXT,
	region TEXT,
	income_group TEXT
)`,
		`CREATE TABLE IF NOT EXISTS fact_co2_emission (
	indicator_id BIGINT NOT NULL REFERENCES dim_indicator(indicator_id),
	country_id BIGINT NOT NULL REFERENCES dim_country(country_id),
	recorded_year INTEGER NOT NULL,
	emission DOUBLE PRECISION,
	PRIMARY KEY(indicator_id, country_id, recorded_year)
)`,
		`CREATE INDEX IF NOT EXISTS idx_fact_year ON fact_co2_emission(recorded_year)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for the store's driver.
func (s *sqlStore) rebind(q string) string {
	return rebind(s.driver, q)
}

func rebind(driver, q string) string {
	if driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const joinQuery = `
SELECT
	ci.indicator_code,
	ci.indicator_name,
	co.country_id,
	co.country_code,
	co.region,
	co.income_group,
	co.country_name,
	fe.recorded_year,
	fe.emission
FROM dim_indicator ci
INNER JOIN fact_co2_emission fe ON ci.indicator_id = fe.indicator_id
INNER JOIN dim_country co ON fe.country_id = co.country_id
WHERE fe.emission IS NOT NULL
ORDER BY co.country_id, fe.recorded_year, ci.indicator_code
`

// Records runs the warehouse join and materializes it.
func (s *sqlStore) Records(ctx context.Context) (*record.Table, error) {
	rows, err := s.db.QueryContext(ctx, joinQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []record.Record
	for rows.Next() {
		var (
			r                               record.Record
			name, region, income, indicator sql.NullString
		)
		if err := rows.Scan(
			&r.IndicatorCode,
			&indicator,
			&r.CountryID,
			&r.CountryCode,
			&region,
			&income,
			&name,
			&r.Year,
			&r.Emission,
		); err != nil {
			return nil, err
		}
		r.IndicatorName = indicator.String
		r.Region = region.String
		r.IncomeGroup = income.String
		r.CountryName = name.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return record.NewTable(out), nil
}

// Years lists the years with emission values.
func (s *sqlStore) Years(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT recorded_year FROM fact_co2_emission WHERE emission IS NOT NULL ORDER BY recorded_year`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// Import upserts dimension rows and facts in one transaction.
func (s *sqlStore) Import(ctx context.Context, records []record.Record) error {
	for i, r := range records {
		if err := r.Validate(i + 1); err != nil {
			return err
		}
		if r.CountryCode == "" {
			return internalerr.Invalid(record.ColCountryCode, "", i+1)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	indicators := make(map[string]int64)
	countries := make(map[string]int64)
	fact, err := tx.PrepareContext(ctx, s.rebind(`
INSERT INTO fact_co2_emission (indicator_id, country_id, recorded_year, emission)
VALUES (?, ?, ?, ?)
ON CONFLICT(indicator_id, country_id, recorded_year) DO UPDATE SET
	emission=excluded.emission`))
	if err != nil {
		return err
	}
	defer fact.Close()

	for _, r := range records {
		indID, ok := indicators[r.IndicatorCode]
		if !ok {
			if indID, err = s.upsertIndicator(ctx, tx, r); err != nil {
				return fmt.Errorf("indicator %s: %w", r.IndicatorCode, err)
			}
			indicators[r.IndicatorCode] = indID
		}
		ctyID, ok := countries[r.CountryCode]
		if !ok {
			if ctyID, err = s.upsertCountry(ctx, tx, r); err != nil {
				return fmt.Errorf("country %s: %w", r.CountryCode, err)
			}
			countries[r.CountryCode] = ctyID
		}
		if _, err := fact.ExecContext(ctx, indID, ctyID, r.Year, r.Emission); err != nil {
			return fmt.Errorf("fact %s/%d: %w", r.CountryCode, r.Year, err)
		}
	}

	return tx.Commit()
}

func (s *sqlStore) upsertIndicator(ctx context.Context, tx *sql.Tx, r record.Record) (int64, error) {
	const stmt = `
INSERT INTO dim_indicator (indicator_code, indicator_name)
VALUES (?, ?)
ON CONFLICT(indicator_code) DO UPDATE SET
	indicator_name=excluded.indicator_name
RETURNING indicator_id`

	var id int64
	err := tx.QueryRowContext(ctx, s.rebind(stmt), r.IndicatorCode, r.IndicatorName).Scan(&id)
	return id, err
}

const advanceCountrySeq = `
SELECT setval(pg_get_serial_sequence('dim_country', 'country_id'),
	(SELECT MAX(country_id) FROM dim_country))`

func (s *sqlStore) upsertCountry(ctx context.Context, tx *sql.Tx, r record.Record) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT country_id FROM dim_country WHERE country_code=?`), r.CountryCode).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, s.rebind(`
UPDATE dim_country SET country_name=?, region=?, income_group=?
WHERE country_id=?`), r.CountryName, r.Region, r.IncomeGroup, id)
		return id, err
	case !errors.Is(err, sql.ErrNoRows):
		return 0, err
	}

	if r.CountryID != 0 {
		_, err = tx.ExecContext(ctx, s.rebind(`
INSERT INTO dim_country (country_id, country_code, country_name, region, income_group)
VALUES (?, ?, ?, ?, ?)`), r.CountryID, r.CountryCode, r.CountryName, r.Region, r.IncomeGroup)
		if err != nil {
			return 0, err
		}
		if s.driver == DriverPostgres {
			// Explicit ids do not advance the identity sequence.
			if _, err := tx.ExecContext(ctx, advanceCountrySeq); err != nil {
				return 0, fmt.Errorf("advance country id sequence: %w", err)
			}
		}
		return r.CountryID, nil
	}
	err = tx.QueryRowContext(ctx, s.rebind(`
INSERT INTO dim_country (country_code, country_name, region, income_group)
VALUES (?, ?, ?, ?)
RETURNING country_id`), r.CountryCode, r.CountryName, r.Region, r.IncomeGroup).Scan(&id)
	return id, err
}
