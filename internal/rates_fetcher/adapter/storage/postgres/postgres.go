package postgres

import (
	"context"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"time"
)

const schema = `CREATE TABLE IF NOT EXISTS metal_rates (
	date      DATE PRIMARY KEY,
	gold      NUMERIC,
	silver    NUMERIC,
	platinum  NUMERIC,
	palladium NUMERIC
)`

const insertRate = `
	INSERT INTO metal_rates (date, gold, silver, platinum, palladium)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (date) DO NOTHING
`

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{
		db: pool,
	}
}

func InitStorage(ctx context.Context, dsn string, timeout time.Duration) (*Storage, error) {
	const op = "storage.postgres.InitStorage"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	if _, err = pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, op)
	}

	return NewStorage(pool), nil
}

func (s *Storage) Close() {
	s.db.Close()
}

// SaveRates inserts the rates in one transaction. Dates already stored are left as they are.
func (s *Storage) SaveRates(ctx context.Context, rates []entities.MetalRate) (added int, err error) {
	const op = "storage.postgres.SaveRates"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, rate := range rates {
		date, err := rate.Date()
		if err != nil {
			return 0, errors.Wrap(err, op)
		}

		args := []any{date}
		for _, m := range entities.Metals {
			args = append(args, nullableText(rate, m))
		}

		tag, err := tx.Exec(ctx, insertRate, args...)
		if err != nil {
			return 0, errors.Wrap(err, op)
		}
		added += int(tag.RowsAffected())
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, op)
	}

	return added, nil
}

func (s *Storage) LastDate(ctx context.Context) (time.Time, bool, error) {
	const op = "storage.postgres.LastDate"

	var last *time.Time
	if err := s.db.QueryRow(ctx, `SELECT MAX(date) FROM metal_rates`).Scan(&last); err != nil {
		return time.Time{}, false, errors.Wrap(err, op)
	}

	if last == nil {
		return time.Time{}, false, nil
	}

	return *last, true, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	const op = "storage.postgres.Count"

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM metal_rates`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, op)
	}

	return count, nil
}

// nullableText passes a metal rate as numeric text, or nil for a missing one.
func nullableText(rate entities.MetalRate, m entities.Metal) *string {
	v, err := rate.Value(m)
	if err != nil || !v.Valid {
		return nil
	}
	s := v.Decimal.String()
	return &s
}
