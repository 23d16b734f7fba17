package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"log/slog"
	_ "modernc.org/sqlite"
	"time"
)

const schema = `CREATE TABLE IF NOT EXISTS metal_rates (
	date      TEXT PRIMARY KEY,
	gold      TEXT,
	silver    TEXT,
	platinum  TEXT,
	palladium TEXT
)`

const insertRate = `
	INSERT OR IGNORE INTO metal_rates (date, gold, silver, platinum, palladium)
	VALUES (?, ?, ?, ?, ?)
`

type Storage struct {
	db *sql.DB
}

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

func (s *Storage) SaveRates(ctx context.Context, rates []entities.MetalRate) (added int, err error) {
	const op = "storage.sqlite.SaveRates"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertRate)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	defer stmt.Close()

	for _, rate := range rates {
		args := []any{rate.DateKey}
		for _, m := range entities.Metals {
			args = append(args, nullableText(rate, m))
		}

		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, errors.Wrap(err, op)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.Wrap(err, op)
		}
		added += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, op)
	}

	return added, nil
}

func (s *Storage) LastDate(ctx context.Context) (time.Time, bool, error) {
	const op = "storage.sqlite.LastDate"

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM metal_rates`).Scan(&last); err != nil {
		return time.Time{}, false, errors.Wrap(err, op)
	}

	if !last.Valid {
		return time.Time{}, false, nil
	}

	date, err := time.Parse(entities.DateKeyFormat, last.String)
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, op)
	}

	return date, true, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	const op = "storage.sqlite.Count"

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metal_rates`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, op)
	}

	return count, nil
}

func nullableText(rate entities.MetalRate, m entities.Metal) sql.NullString {
	v, err := rate.Value(m)
	if err != nil || !v.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: v.Decimal.String(), Valid: true}
}
