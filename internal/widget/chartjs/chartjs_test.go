package chartjs

import (
	"encoding/json"
	"github.com/google/go-cmp/cmp"
	"github.com/langowen/metals/internal/dashboard"
	"github.com/langowen/metals/internal/entities"
	"github.com/shopspring/decimal"
	"slices"
	"strings"
	"testing"
)

func series(t *testing.T, metal entities.Metal, values ...int64) dashboard.Series {
	t.Helper()
	var rows []entities.MetalRate
	for i, v := range values {
		r := entities.MetalRate{DateKey: "2021-01-0" + string(rune('1'+i))}
		_ = r.Set(metal, decimal.NewFromInt(v))
		rows = append(rows, r)
	}
	s, err := dashboard.BuildSeries(slices.Values(rows), metal, dashboard.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewConfig(t *testing.T) {
	h, err := dashboard.NewChartView(New()).Render(series(t, entities.Gold, 1000, 1100))
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(h.(*Chart).Config())
	if err != nil {
		t.Fatal(err)
	}

	want := `{"type":"line","data":{"datasets":[{"label":"золота","data":[{"x":"2021-01-01","y":1000},{"x":"2021-01-02","y":1100}],"borderColor":"rgb(255, 102, 10)","fill":false}]},"options":{"legend":{"display":false},"scales":{"xAxes":[{"type":"time","time":{"unit":"month","tooltipFormat":"DD/MM/YYYY","displayFormats":{"month":"DD/MM/YYYY"}},"distribution":"linear"}]}}}`
	if string(data) != want {
		t.Errorf("config =\n%s\nwant\n%s", data, want)
	}
}

func TestUpdateOnlyTouchesDatasetAndUnit(t *testing.T) {
	view := dashboard.NewChartView(New())
	h, err := view.Render(series(t, entities.Gold, 1000))
	if err != nil {
		t.Fatal(err)
	}
	c := h.(*Chart)
	before := c.Config()

	next := series(t, entities.Silver, 10, 11, 12)
	next.TimeUnit = dashboard.UnitYear
	if err := view.Update(h, next); err != nil {
		t.Fatal(err)
	}
	after := c.Config()

	if after.Data.Datasets[0].BorderColor != "rgb(137, 137, 137)" || len(after.Data.Datasets[0].Data) != 3 {
		t.Errorf("dataset not replaced: %+v", after.Data.Datasets[0])
	}
	if after.Options.Scales.XAxes[0].Time.Unit != "year" {
		t.Errorf("unit = %s", after.Options.Scales.XAxes[0].Time.Unit)
	}

	after.Data = before.Data
	after.Options.Scales.XAxes[0].Time.Unit = before.Options.Scales.XAxes[0].Time.Unit
	if diff := cmp.Diff(before, after, cmp.Comparer(func(a, b dashboard.Point) bool { return a.X == b.X })); diff != "" {
		t.Errorf("other options changed (-before +after):\n%s", diff)
	}
}

func TestUpdateIdempotent(t *testing.T) {
	view := dashboard.NewChartView(New())
	h, err := view.Render(series(t, entities.Gold, 1))
	if err != nil {
		t.Fatal(err)
	}
	s := series(t, entities.Platinum, 5, 6)

	_ = view.Update(h, s)
	once, _ := json.Marshal(h.(*Chart).Config())
	_ = view.Update(h, s)
	twice, _ := json.Marshal(h.(*Chart).Config())

	if string(once) != string(twice) {
		t.Errorf("update twice differs:\n%s\n%s", once, twice)
	}
}

func TestPendingChangesNeedRedraw(t *testing.T) {
	h, err := New().New(dashboard.LineChartConfig(series(t, entities.Gold, 1)))
	if err != nil {
		t.Fatal(err)
	}
	c := h.(*Chart)

	c.SetTimeUnit(dashboard.UnitYear)
	if got := c.Config().Options.Scales.XAxes[0].Time.Unit; got != "month" {
		t.Errorf("unit changed before redraw: %s", got)
	}
	_ = c.Redraw()
	if got := c.Config().Options.Scales.XAxes[0].Time.Unit; got != "year" {
		t.Errorf("unit after redraw: %s", got)
	}
}

func TestConfigIsACopy(t *testing.T) {
	h, _ := New().New(dashboard.LineChartConfig(series(t, entities.Gold, 1)))
	c := h.(*Chart)

	cfg := c.Config()
	cfg.Options.Scales.XAxes[0].Time.DisplayFormats["month"] = "YYYY"
	cfg.Data.Datasets[0].BorderColor = "red"

	again := c.Config()
	if got := again.Options.Scales.XAxes[0].Time.DisplayFormats["month"]; got != "DD/MM/YYYY" {
		t.Errorf("display format leaked: %s", got)
	}
	if again.Data.Datasets[0].BorderColor == "red" {
		t.Error("dataset leaked")
	}
}

func TestEmptySeriesMarshalsToArray(t *testing.T) {
	h, _ := New().New(dashboard.LineChartConfig(dashboard.Series{Metal: entities.Gold, TimeUnit: dashboard.UnitMonth}))
	data, _ := json.Marshal(h.(*Chart).Config().Data)
	if !strings.Contains(string(data), `"data":[]`) {
		t.Errorf("empty dataset = %s", data)
	}
}
