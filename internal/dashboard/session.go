package dashboard

import (
	"github.com/langowen/metals/internal/dashboard/locale"
	"github.com/pkg/errors"
)

type Widgets struct {
	Table TableWidget
	Chart ChartWidget
}

// Session is one rendered dashboard: the table, the chart and the controller wiring
// them together.
type Session struct {
	Store      *Store
	Table      *TableView
	Chart      ChartHandle
	Controller *Controller
	Initial    Series
	Filter     FilterInput
}

// NewSession renders the table from store, then builds and renders the initial chart
// from the table rows filtered by in.
func NewSession(store *Store, widgets Widgets, loc *locale.Locale, in FilterInput) (*Session, error) {
	const op = "dashboard.NewSession"

	table, err := NewTableView(widgets.Table, store, loc)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	series, err := Recompute(table, in)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	chartView := NewChartView(widgets.Chart)
	handle, err := chartView.Render(series)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return &Session{
		Store:      store,
		Table:      table,
		Chart:      handle,
		Controller: NewController(table, chartView, handle),
		Initial:    series,
		Filter:     in,
	}, nil
}
