package dashboard

import (
	"github.com/langowen/metals/internal/entities"
	"github.com/shopspring/decimal"
	"iter"
	"slices"
	"testing"
	"time"
)

// rate builds a record for date key with the given gold value; gold < 0 means absent.
func rate(t *testing.T, key string, gold float64) entities.MetalRate {
	t.Helper()

	at, err := time.Parse(entities.DateKeyFormat, key)
	if err != nil {
		t.Fatalf("bad date key %q: %v", key, err)
	}
	r := entities.NewMetalRate(at)
	if gold >= 0 {
		if err := r.Set(entities.Gold, decimal.NewFromFloat(gold)); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func sampleRows(t *testing.T) []entities.MetalRate {
	return []entities.MetalRate{
		rate(t, "2020-01-01", 1000),
		rate(t, "2020-06-01", 1100),
		rate(t, "2021-01-01", 1200),
	}
}

type sliceRows []entities.MetalRate

func (s sliceRows) Rows() iter.Seq[entities.MetalRate] { return slices.Values(s) }

// reverseTable is a table widget showing rows newest first, like the default order.
type reverseTable struct {
	spec TableSpec
	rows []entities.MetalRate
}

func (w *reverseTable) Render(spec TableSpec, rows []entities.MetalRate) (TableHandle, error) {
	w.spec = spec
	w.rows = slices.Clone(rows)
	slices.Reverse(w.rows)
	return sliceRows(w.rows), nil
}

// fakeChart records what the chart view does to it.
type fakeChart struct {
	created  ChartConfig
	pending  ChartConfig
	drawn    ChartConfig
	redraws  int
	failNext error
}

func (w *fakeChart) New(cfg ChartConfig) (ChartHandle, error) {
	w.created = cfg
	w.pending = cfg
	w.drawn = cfg
	return w, nil
}

func (w *fakeChart) SetDataset(ds Dataset)     { w.pending.Dataset = ds }
func (w *fakeChart) SetTimeUnit(unit TimeUnit) { w.pending.TimeUnit = unit }

func (w *fakeChart) Redraw() error {
	if err := w.failNext; err != nil {
		w.failNext = nil
		return err
	}
	w.redraws++
	w.drawn = w.pending
	return nil
}

func mustDate(t *testing.T, key string) *time.Time {
	t.Helper()
	d := ParseBound(key)
	if d == nil {
		t.Fatalf("bad date %q", key)
	}
	return d
}
