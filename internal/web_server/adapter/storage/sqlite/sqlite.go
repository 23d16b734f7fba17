package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"log/slog"
	_ "modernc.org/sqlite"
	"time"
)

// Rates are kept as text so decimal values survive the round trip unchanged.
const schema = `CREATE TABLE IF NOT EXISTS metal_rates (
	date      TEXT PRIMARY KEY,
	gold      TEXT,
	silver    TEXT,
	platinum  TEXT,
	palladium TEXT
)`

const (
	selectRates = `
		SELECT date, gold, silver, platinum, palladium
		FROM metal_rates
		ORDER BY date
	`
	selectCompleteRates = `
		SELECT date, gold, silver, platinum, palladium
		FROM metal_rates
		WHERE gold IS NOT NULL
			AND silver IS NOT NULL
			AND platinum IS NOT NULL
			AND palladium IS NOT NULL
		ORDER BY date
	`
	selectRange = `SELECT MIN(date), MAX(date) FROM metal_rates`
)

type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database file and makes sure the rates table exists.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: set WAL mode: %w", op, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	slog.Info("SQLite storage opened", "path", path)
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) LoadRates(ctx context.Context, ignoreNull bool) ([]entities.MetalRate, error) {
	const op = "storage.sqlite.LoadRates"

	query := selectRates
	if ignoreNull {
		query = selectCompleteRates
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer rows.Close()

	var rates []entities.MetalRate

	for rows.Next() {
		var key string
		values := make([]sql.NullString, len(entities.Metals))

		if err := rows.Scan(&key, &values[0], &values[1], &values[2], &values[3]); err != nil {
			return nil, errors.Wrap(err, op)
		}

		rate, err := buildRate(key, values)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		rates = append(rates, rate)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return rates, nil
}

func (s *Storage) RangeDates(ctx context.Context) (string, string, error) {
	const op = "storage.sqlite.RangeDates"

	var first, last sql.NullString
	if err := s.db.QueryRowContext(ctx, selectRange).Scan(&first, &last); err != nil {
		return "", "", errors.Wrap(err, op)
	}

	if !first.Valid || !last.Valid {
		return "", "", entities.ErrEmptyStore
	}

	return first.String, last.String, nil
}

func buildRate(key string, values []sql.NullString) (entities.MetalRate, error) {
	date, err := time.Parse(entities.DateKeyFormat, key)
	if err != nil {
		return entities.MetalRate{}, fmt.Errorf("date %q: %w", key, err)
	}

	rate := entities.NewMetalRate(date)

	for i, m := range entities.Metals {
		if !values[i].Valid {
			continue
		}

		v, err := decimal.NewFromString(values[i].String)
		if err != nil {
			return entities.MetalRate{}, fmt.Errorf("%s on %s: %w", m, key, err)
		}
		if err := rate.Set(m, v); err != nil {
			return entities.MetalRate{}, err
		}
	}

	return rate, nil
}
