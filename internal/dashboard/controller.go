package dashboard

import (
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"log/slog"
	"sync"
)

// FilterInput holds the raw values of the chart controls.
type FilterInput struct {
	Metal string
	From  string
	To    string
}

// Controller recomputes the chart when a chart-affecting control changes. It owns the
// chart handle and only reads the table rows.
type Controller struct {
	mu     sync.Mutex
	rows   RowSource
	chart  *ChartView
	handle ChartHandle
}

func NewController(rows RowSource, chart *ChartView, handle ChartHandle) *Controller {
	return &Controller{
		rows:   rows,
		chart:  chart,
		handle: handle,
	}
}

// OnChange runs one full recompute and redraw. Calls are serialized and run in arrival
// order. On error the chart keeps its previous state.
func (c *Controller) OnChange(in FilterInput) (Series, error) {
	const op = "dashboard.Controller.OnChange"

	c.mu.Lock()
	defer c.mu.Unlock()

	slog.Debug("recomputing chart", "metal", in.Metal, "from", in.From, "to", in.To)

	series, err := Recompute(c.rows, in)
	if err != nil {
		return Series{}, errors.Wrap(err, op)
	}

	if err := c.chart.Update(c.handle, series); err != nil {
		return Series{}, errors.Wrap(err, op)
	}

	return series, nil
}

// Handle exposes the chart handle for reading. Mutations go through OnChange.
func (c *Controller) Handle() ChartHandle { return c.handle }

// Recompute parses the raw control values and builds the series from the current rows.
func Recompute(rows RowSource, in FilterInput) (Series, error) {
	metal, err := entities.ParseMetal(in.Metal)
	if err != nil {
		return Series{}, err
	}
	return BuildSeries(rows.Rows(), metal, ParseRange(in.From, in.To))
}
