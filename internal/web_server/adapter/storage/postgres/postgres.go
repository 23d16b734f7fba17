package postgres

import (
	"context"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/langowen/metals/deploy/config"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"log/slog"
	"time"
)

const (
	selectRates = `
		SELECT date, gold::text, silver::text, platinum::text, palladium::text
		FROM metal_rates
		ORDER BY date
	`
	selectCompleteRates = `
		SELECT date, gold::text, silver::text, platinum::text, palladium::text
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
	db  *pgxpool.Pool
	cfg *config.Config
}

func NewStorage(pool *pgxpool.Pool, cfg *config.Config) *Storage {
	return &Storage{
		db:  pool,
		cfg: cfg,
	}
}

func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(cfg.Storage.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s: parse config failed: %w", op, err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("pgxpool connect failed", "error", err)
		return nil, fmt.Errorf("%s: pgxpool connect failed: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		slog.Error("pgxpool ping failed", "error", err)
		pool.Close()
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	slog.Info("PostgresSQL storage initialized successfully")
	return NewStorage(pool, cfg), nil
}

func (s *Storage) Close() {
	s.db.Close()
}

func (s *Storage) LoadRates(ctx context.Context, ignoreNull bool) ([]entities.MetalRate, error) {
	const op = "storage.postgres.LoadRates"

	query := selectRates
	if ignoreNull {
		query = selectCompleteRates
	}

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer rows.Close()

	var rates []entities.MetalRate

	for rows.Next() {
		var date time.Time
		values := make([]*string, len(entities.Metals))

		if err := rows.Scan(&date, &values[0], &values[1], &values[2], &values[3]); err != nil {
			return nil, errors.Wrap(err, op)
		}

		rate, err := buildRate(date, values)
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
	const op = "storage.postgres.RangeDates"

	var first, last *time.Time
	if err := s.db.QueryRow(ctx, selectRange).Scan(&first, &last); err != nil {
		return "", "", errors.Wrap(err, op)
	}

	if first == nil || last == nil {
		return "", "", entities.ErrEmptyStore
	}

	return first.Format(entities.DateKeyFormat), last.Format(entities.DateKeyFormat), nil
}

// buildRate fills a record from nullable text columns in entities.Metals order.
func buildRate(date time.Time, values []*string) (entities.MetalRate, error) {
	rate := entities.NewMetalRate(date)

	for i, m := range entities.Metals {
		if values[i] == nil {
			continue
		}

		v, err := decimal.NewFromString(*values[i])
		if err != nil {
			return entities.MetalRate{}, fmt.Errorf("%s on %s: %w", m, rate.DateKey, err)
		}
		if err := rate.Set(m, v); err != nil {
			return entities.MetalRate{}, err
		}
	}

	return rate, nil
}
