package dashboard

import (
	"github.com/pkg/errors"
)

const (
	chartTypeLine      = "line"
	distributionLinear = "linear"
	dayMonthYear       = "DD/MM/YYYY"
)

type Dataset struct {
	Label       string
	Data        []Point
	BorderColor string
}

type ChartConfig struct {
	Type           string
	Dataset        Dataset
	TimeUnit       TimeUnit
	Distribution   string
	TooltipFormat  string
	DisplayFormats map[TimeUnit]string
	ShowLegend     bool
}

// ChartHandle is a drawn chart. Setters change the pending state, Redraw applies it.
type ChartHandle interface {
	SetDataset(ds Dataset)
	SetTimeUnit(unit TimeUnit)
	Redraw() error
}

type ChartWidget interface {
	New(cfg ChartConfig) (ChartHandle, error)
}

type ChartView struct {
	widget ChartWidget
}

func NewChartView(widget ChartWidget) *ChartView {
	return &ChartView{widget: widget}
}

// LineChartConfig is the configuration of a freshly rendered rates chart.
func LineChartConfig(s Series) ChartConfig {
	return ChartConfig{
		Type:           chartTypeLine,
		Dataset:        datasetOf(s),
		TimeUnit:       s.TimeUnit,
		Distribution:   distributionLinear,
		TooltipFormat:  dayMonthYear,
		DisplayFormats: map[TimeUnit]string{UnitMonth: dayMonthYear},
		ShowLegend:     false,
	}
}

func (v *ChartView) Render(s Series) (ChartHandle, error) {
	const op = "dashboard.ChartView.Render"

	h, err := v.widget.New(LineChartConfig(s))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return h, nil
}

// Update swaps the dataset and the time unit and leaves the rest of the chart alone.
func (v *ChartView) Update(h ChartHandle, s Series) error {
	const op = "dashboard.ChartView.Update"

	h.SetDataset(datasetOf(s))
	h.SetTimeUnit(s.TimeUnit)

	if err := h.Redraw(); err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

func datasetOf(s Series) Dataset {
	return Dataset{
		Label:       s.Metal.Plural(),
		Data:        s.Data,
		BorderColor: s.Color,
	}
}
