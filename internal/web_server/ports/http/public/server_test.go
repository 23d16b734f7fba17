package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"github.com/langowen/metals/deploy/config"
	"github.com/langowen/metals/internal/entities"
	"github.com/langowen/metals/internal/web_server/service"
	"github.com/shopspring/decimal"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"
)

var sessionRe = regexp.MustCompile(`const SESSION = "([0-9a-f-]+)";`)

type memStorage struct {
	rates []entities.MetalRate
	err   error
}

func (m *memStorage) LoadRates(context.Context, bool) ([]entities.MetalRate, error) {
	return m.rates, nil
}

func (m *memStorage) RangeDates(context.Context) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	if len(m.rates) == 0 {
		return "", "", entities.ErrEmptyStore
	}
	return m.rates[0].DateKey, m.rates[len(m.rates)-1].DateKey, nil
}

func testRate(t *testing.T, key string, gold int64) entities.MetalRate {
	t.Helper()

	at, err := time.Parse(entities.DateKeyFormat, key)
	if err != nil {
		t.Fatal(err)
	}
	r := entities.NewMetalRate(at)
	for _, m := range entities.Metals {
		if err := r.Set(m, decimal.NewFromInt(gold)); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func newTestServer(t *testing.T, storage *memStorage) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Dashboard: config.Dashboard{
			DefaultMetal: "gold",
			Window:       365 * 24 * time.Hour,
			IgnoreNull:   true,
			Locale:       "ru",
			ChartWidth:   300,
			ChartHeight:  200,
		},
	}

	svc, err := service.NewService(context.Background(), storage, cfg.Dashboard, nil)
	if err != nil {
		t.Fatal(err)
	}

	return NewServer(&http.Server{}, cfg, svc).Router()
}

func sampleStorage(t *testing.T) *memStorage {
	return &memStorage{rates: []entities.MetalRate{
		testRate(t, "2020-01-01", 1000),
		testRate(t, "2020-06-01", 1100),
		testRate(t, "2021-01-01", 1200),
	}}
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// openPage renders the index and returns the session id embedded in it.
func openPage(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := do(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}

	m := sessionRe.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatal("page has no session id")
	}
	return m[1]
}

func TestIndex(t *testing.T) {
	h := newTestServer(t, sampleStorage(t))

	rec := do(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`id="select_metal"`,
		`id="from_date"`,
		`value="2020-01-02"`,
		`max="2021-01-01"`,
		`rgb(255, 102, 10)`,
		`"lengthMenu"`,
		`session: SESSION`,
		`pending = pending`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page does not contain %s", want)
		}
	}
	if !sessionRe.MatchString(body) {
		t.Error("page does not embed a session id")
	}
}

func TestGetChart(t *testing.T) {
	h := newTestServer(t, sampleStorage(t))
	id := openPage(t, h)

	rec := do(t, h, "/api/chart?session="+id+"&metal=palladium&from=2020-03-01&to=2020-12-31")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var cfg struct {
		Data struct {
			Datasets []struct {
				Data []struct {
					X string   `json:"x"`
					Y *float64 `json:"y"`
				} `json:"data"`
				BorderColor string `json:"borderColor"`
			} `json:"datasets"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}

	ds := cfg.Data.Datasets[0]
	if ds.BorderColor != "rgb(97, 125, 180)" {
		t.Errorf("color = %q", ds.BorderColor)
	}
	if len(ds.Data) != 1 || ds.Data[0].X != "2020-06-01" || ds.Data[0].Y == nil || *ds.Data[0].Y != 1100 {
		t.Errorf("data = %+v", ds.Data)
	}
}

func TestGetChartUnknownMetal(t *testing.T) {
	h := newTestServer(t, sampleStorage(t))
	id := openPage(t, h)

	rec := do(t, h, "/api/chart?session="+id+"&metal=copper")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = do(t, h, "/api/chart.png?session="+id+"&metal=copper")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("png status = %d, want 400", rec.Code)
	}
}

func TestGetChartUnknownSession(t *testing.T) {
	h := newTestServer(t, sampleStorage(t))
	openPage(t, h)

	for _, target := range []string{
		"/api/chart?metal=gold",
		"/api/chart?session=00000000-0000-0000-0000-000000000000&metal=gold",
		"/api/chart.png?session=unknown&metal=gold",
	} {
		if rec := do(t, h, target); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, rec.Code)
		}
	}
}

func TestGetChartPNG(t *testing.T) {
	h := newTestServer(t, sampleStorage(t))
	id := openPage(t, h)

	rec := do(t, h, "/api/chart.png?session="+id+"&metal=gold")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}
}

func TestGetRatesAndTable(t *testing.T) {
	h := newTestServer(t, sampleStorage(t))

	rec := do(t, h, "/api/rates")
	if rec.Code != http.StatusOK {
		t.Fatalf("rates status = %d", rec.Code)
	}
	var rates []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rates); err != nil {
		t.Fatal(err)
	}
	if len(rates) != 3 || rates[0]["date"] != "01.01.2020" || rates[0]["date_iso"] != "2020-01-01" {
		t.Errorf("rates = %v", rates)
	}

	rec = do(t, h, "/api/table")
	if rec.Code != http.StatusOK {
		t.Fatalf("table status = %d", rec.Code)
	}
	var table struct {
		Data  []map[string]any `json:"data"`
		Order [][2]any         `json:"order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &table); err != nil {
		t.Fatal(err)
	}
	if len(table.Data) != 3 {
		t.Errorf("table rows = %d", len(table.Data))
	}
	if len(table.Order) != 1 || table.Order[0][1] != "desc" {
		t.Errorf("order = %v", table.Order)
	}
}

func TestHealth(t *testing.T) {
	storage := sampleStorage(t)
	h := newTestServer(t, storage)

	rec := do(t, h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"last_date":"2021-01-01"`) {
		t.Errorf("body = %s", rec.Body)
	}

	storage.err = errors.New("connection refused")
	if rec := do(t, h, "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, sampleStorage(t))

	if rec := do(t, h, "/metrics"); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
