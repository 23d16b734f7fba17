package sqlite

import (
	"context"
	"github.com/langowen/metals/internal/entities"
	readStorage "github.com/langowen/metals/internal/web_server/adapter/storage/sqlite"
	"github.com/shopspring/decimal"
	"path/filepath"
	"testing"
	"time"
)

func goldRate(t *testing.T, key, gold string) entities.MetalRate {
	t.Helper()

	at, err := time.Parse(entities.DateKeyFormat, key)
	if err != nil {
		t.Fatal(err)
	}
	r := entities.NewMetalRate(at)
	if err := r.Set(entities.Gold, decimal.RequireFromString(gold)); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestSaveRatesInsertsMissingDates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rates.sqlite")

	s, err := New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, ok, err := s.LastDate(ctx); err != nil || ok {
		t.Fatalf("LastDate on empty db = %v, %v", ok, err)
	}

	added, err := s.SaveRates(ctx, []entities.MetalRate{
		goldRate(t, "2021-01-11", "4447.54"),
		goldRate(t, "2021-01-12", "4386.53"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}

	// The stored value of an existing date is kept.
	added, err = s.SaveRates(ctx, []entities.MetalRate{
		goldRate(t, "2021-01-12", "1"),
		goldRate(t, "2021-01-13", "4400"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	count, err := s.Count(ctx)
	if err != nil || count != 3 {
		t.Errorf("Count() = %d, %v", count, err)
	}

	last, ok, err := s.LastDate(ctx)
	if err != nil || !ok || last.Format(entities.DateKeyFormat) != "2021-01-13" {
		t.Errorf("LastDate() = %v, %v, %v", last, ok, err)
	}

	// The web server reads what the fetcher wrote.
	r, err := readStorage.New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	rates, err := r.LoadRates(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rates) != 3 || rates[1].Gold.Decimal.String() != "4386.53" || rates[1].Silver.Valid {
		t.Errorf("rates = %+v", rates)
	}
}
