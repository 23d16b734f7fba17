package sqlite

import (
	"context"
	"errors"
	"github.com/langowen/metals/internal/entities"
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "rates.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insert(t *testing.T, s *Storage, date string, values ...any) {
	t.Helper()

	args := append([]any{date}, values...)
	_, err := s.db.Exec(`INSERT INTO metal_rates (date, gold, silver, platinum, palladium) VALUES (?, ?, ?, ?, ?)`, args...)
	if err != nil {
		t.Fatal(err)
	}
}

func TestLoadRates(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	insert(t, s, "2021-01-12", "4400.5", "60.1", "2600", "5900")
	insert(t, s, "2021-01-11", "4350", nil, "2550", "5800")
	insert(t, s, "2021-01-13", "4410", "61", "2610", "5910")

	all, err := s.LoadRates(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].DateKey != "2021-01-11" || all[2].DateKey != "2021-01-13" {
		t.Errorf("order = %s, %s", all[0].DateKey, all[2].DateKey)
	}
	if all[0].Silver.Valid {
		t.Error("silver should be null")
	}
	if got := all[1].Gold.Decimal.String(); got != "4400.5" {
		t.Errorf("gold = %s", got)
	}

	complete, err := s.LoadRates(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(complete) != 2 {
		t.Errorf("complete len = %d, want 2", len(complete))
	}
}

func TestRangeDates(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, _, err := s.RangeDates(ctx); !errors.Is(err, entities.ErrEmptyStore) {
		t.Fatalf("err = %v, want ErrEmptyStore", err)
	}

	insert(t, s, "2020-05-01", "1", "1", "1", "1")
	insert(t, s, "2019-02-01", "1", "1", "1", "1")

	first, last, err := s.RangeDates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != "2019-02-01" || last != "2020-05-01" {
		t.Errorf("range = %s..%s", first, last)
	}
}

func TestLoadRatesBadValue(t *testing.T) {
	s := newTestStorage(t)

	insert(t, s, "2021-01-12", "abc", nil, nil, nil)

	if _, err := s.LoadRates(context.Background(), false); err == nil {
		t.Fatal("expected error")
	}
}
