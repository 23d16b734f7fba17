package service

import (
	"context"
	"github.com/google/uuid"
	"github.com/langowen/metals/deploy/config"
	"github.com/langowen/metals/internal/dashboard"
	"github.com/langowen/metals/internal/dashboard/locale"
	"github.com/langowen/metals/internal/entities"
	"github.com/langowen/metals/internal/widget/chartjs"
	"github.com/langowen/metals/internal/widget/datatables"
	"github.com/langowen/metals/internal/widget/pngchart"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"sync"
	"time"
)

const (
	listenRetryDelay = 5 * time.Second
	// maxSessions bounds the pages whose chart state is kept. The oldest is dropped first.
	maxSessions = 64
)

type MetalInfo struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Plural string `json:"plural"`
	Color  string `json:"color"`
}

// Page is everything the index template needs to bootstrap the table and the chart.
type Page struct {
	SessionID  string
	Table      datatables.Config
	Chart      chartjs.Config
	Metals     []MetalInfo
	StartDate  string
	EndDate    string
	FilterDate string
	Filter     dashboard.FilterInput
}

type Health struct {
	Records   int    `json:"records"`
	FirstDate string `json:"first_date,omitempty"`
	LastDate  string `json:"last_date,omitempty"`
}

type Service struct {
	storage Storage
	cfg     config.Dashboard
	loc     *locale.Locale
	png     *pngchart.Widget
	metrics *metrics

	mu       sync.RWMutex
	store    *dashboard.Store
	latest   *dashboard.Session
	sessions map[string]*dashboard.Session
	order    []string
}

// NewService loads the locale and the first store snapshot. reg may be nil.
func NewService(ctx context.Context, storage Storage, cfg config.Dashboard, reg prometheus.Registerer) (*Service, error) {
	const op = "service.NewService"

	loc, err := locale.Load(cfg.Locale)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	s := &Service{
		storage:  storage,
		cfg:      cfg,
		loc:      loc,
		png:      pngchart.New(cfg.ChartWidth, cfg.ChartHeight),
		metrics:  newMetrics(reg),
		sessions: make(map[string]*dashboard.Session, maxSessions),
	}

	if err := s.Reload(ctx); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return s, nil
}

// Reload reads the rates from storage and swaps in a new store. Pages handed out
// earlier keep their session and its snapshot.
func (s *Service) Reload(ctx context.Context) error {
	const op = "service.Reload"

	rates, err := s.storage.LoadRates(ctx, s.cfg.IgnoreNull)
	s.metrics.reloads.WithLabelValues(result(err)).Inc()
	if err != nil {
		return errors.Wrap(err, op)
	}

	store := dashboard.NewStore(rates)
	session, err := s.newSession(store)
	if err != nil {
		return errors.Wrap(err, op)
	}

	s.mu.Lock()
	s.store = store
	s.latest = session
	s.mu.Unlock()

	s.metrics.records.Set(float64(store.Len()))
	slog.Info("metal rates loaded", "records", store.Len())

	return nil
}

// WatchUpdates reloads the store on every update announcement until ctx is done.
func (s *Service) WatchUpdates(ctx context.Context, listener UpdateListener) {
	for {
		payload, err := listener.ListenUpdates(ctx)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			if errors.Is(err, entities.ErrRedisTimeout) {
				continue
			}
			slog.Error("Failed to receive update", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(listenRetryDelay):
			}
			continue
		}

		slog.Debug("rates update received", "payload", payload)

		if err := s.Reload(ctx); err != nil {
			slog.Error("Failed to reload rates", "error", err)
		}
	}
}

// NewPage starts a new dashboard session on the current store. The chart endpoints
// find it again by Page.SessionID.
func (s *Service) NewPage() (*Page, error) {
	const op = "service.NewPage"

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	session, err := s.newSession(store)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	page, err := s.page(session)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	page.SessionID = s.register(session)

	return page, nil
}

// Chart runs the filter controller of the session behind page id.
func (s *Service) Chart(id string, in dashboard.FilterInput) (chartjs.Config, error) {
	const op = "service.Chart"

	session, err := s.lookup(id)
	if err != nil {
		return chartjs.Config{}, errors.Wrap(err, op)
	}

	series, err := session.Controller.OnChange(in)
	s.metrics.recomputes.WithLabelValues(metalLabel(series.Metal), result(err)).Inc()
	if err != nil {
		return chartjs.Config{}, errors.Wrap(err, op)
	}

	chart, err := chartConfig(session.Chart)
	if err != nil {
		return chartjs.Config{}, errors.Wrap(err, op)
	}

	return chart, nil
}

// ChartPNG draws the series for in from the table rows of session id. The session
// chart is left untouched.
func (s *Service) ChartPNG(id string, in dashboard.FilterInput) ([]byte, error) {
	const op = "service.ChartPNG"

	session, err := s.lookup(id)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	series, err := dashboard.Recompute(session.Table, in)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	handle, err := dashboard.NewChartView(s.png).Render(series)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	img, ok := handle.(*pngchart.Chart)
	if !ok {
		return nil, errors.Errorf("%s: unexpected chart handle %T", op, handle)
	}

	return img.PNG(), nil
}

func (s *Service) Rates() []entities.MetalRate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Records()
}

func (s *Service) Table() (datatables.Config, error) {
	return tableConfig(s.current().Table.Handle())
}

func (s *Service) Health(ctx context.Context) (Health, error) {
	const op = "service.Health"

	first, last, err := s.storage.RangeDates(ctx)
	if err != nil && !errors.Is(err, entities.ErrEmptyStore) {
		return Health{}, errors.Wrap(err, op)
	}

	s.mu.RLock()
	records := s.store.Len()
	s.mu.RUnlock()

	return Health{Records: records, FirstDate: first, LastDate: last}, nil
}

func (s *Service) current() *dashboard.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest
}

func (s *Service) register(session *dashboard.Session) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) >= maxSessions {
		delete(s.sessions, s.order[0])
		s.order = s.order[1:]
	}
	s.sessions[id] = session
	s.order = append(s.order, id)

	return id
}

func (s *Service) lookup(id string) (*dashboard.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) newSession(store *dashboard.Store) (*dashboard.Session, error) {
	widgets := dashboard.Widgets{
		Table: datatables.New(),
		Chart: chartjs.New(),
	}

	session, err := dashboard.NewSession(store, widgets, s.loc, s.defaultFilter(store))
	if err != nil {
		return nil, err
	}

	s.metrics.sessions.Inc()
	return session, nil
}

// defaultFilter selects the default metal over the last window of the stored dates.
func (s *Service) defaultFilter(store *dashboard.Store) dashboard.FilterInput {
	in := dashboard.FilterInput{Metal: s.cfg.DefaultMetal}

	_, last, ok := store.RangeDates()
	if !ok {
		return in
	}

	lastDate, err := time.Parse(entities.DateKeyFormat, last)
	if err != nil {
		return in
	}

	in.From = lastDate.Add(-s.cfg.Window).Format(entities.DateKeyFormat)
	in.To = last

	return in
}

func (s *Service) page(session *dashboard.Session) (*Page, error) {
	table, err := tableConfig(session.Table.Handle())
	if err != nil {
		return nil, err
	}

	chart, err := chartConfig(session.Chart)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Table:      table,
		Chart:      chart,
		Metals:     metalInfos(),
		Filter:     session.Filter,
		FilterDate: session.Filter.From,
	}
	page.StartDate, page.EndDate, _ = session.Store.RangeDates()

	return page, nil
}

func metalInfos() []MetalInfo {
	infos := make([]MetalInfo, 0, len(entities.Metals))
	for _, m := range entities.Metals {
		color, _ := m.Color()
		infos = append(infos, MetalInfo{
			Name:   m.String(),
			Title:  m.Title(),
			Plural: m.Plural(),
			Color:  color,
		})
	}
	return infos
}

func tableConfig(h dashboard.TableHandle) (datatables.Config, error) {
	table, ok := h.(*datatables.Table)
	if !ok {
		return datatables.Config{}, errors.Errorf("unexpected table handle %T", h)
	}
	return table.Config(), nil
}

func chartConfig(h dashboard.ChartHandle) (chartjs.Config, error) {
	chart, ok := h.(*chartjs.Chart)
	if !ok {
		return chartjs.Config{}, errors.Errorf("unexpected chart handle %T", h)
	}
	return chart.Config(), nil
}

func metalLabel(m entities.Metal) string {
	if !m.Valid() {
		return "unknown"
	}
	return m.String()
}
