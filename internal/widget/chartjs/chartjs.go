// Package chartjs keeps the state of a Chart.js (v2) line chart on the server. The
// browser receives the drawn configuration and mirrors it.
package chartjs

import (
	"github.com/langowen/metals/internal/dashboard"
	"maps"
	"slices"
	"sync"
)

type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

type Data struct {
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label       string            `json:"label,omitempty"`
	Data        []dashboard.Point `json:"data"`
	BorderColor string            `json:"borderColor"`
	Fill        bool              `json:"fill"`
}

type Options struct {
	Legend Legend `json:"legend"`
	Scales Scales `json:"scales"`
}

type Legend struct {
	Display bool `json:"display"`
}

type Scales struct {
	XAxes []TimeAxis `json:"xAxes"`
}

type TimeAxis struct {
	Type         string      `json:"type"`
	Time         TimeOptions `json:"time"`
	Distribution string      `json:"distribution"`
}

type TimeOptions struct {
	Unit           string            `json:"unit"`
	TooltipFormat  string            `json:"tooltipFormat"`
	DisplayFormats map[string]string `json:"displayFormats"`
}

type Widget struct{}

func New() *Widget { return &Widget{} }

// Chart holds the pending configuration and the one last drawn.
type Chart struct {
	mu      sync.Mutex
	pending Config
	drawn   Config
}

func (w *Widget) New(cfg dashboard.ChartConfig) (dashboard.ChartHandle, error) {
	formats := make(map[string]string, len(cfg.DisplayFormats))
	for unit, f := range cfg.DisplayFormats {
		formats[string(unit)] = f
	}

	c := &Chart{
		pending: Config{
			Type: cfg.Type,
			Data: Data{Datasets: []Dataset{toDataset(cfg.Dataset)}},
			Options: Options{
				Legend: Legend{Display: cfg.ShowLegend},
				Scales: Scales{XAxes: []TimeAxis{{
					Type: "time",
					Time: TimeOptions{
						Unit:           string(cfg.TimeUnit),
						TooltipFormat:  cfg.TooltipFormat,
						DisplayFormats: formats,
					},
					Distribution: cfg.Distribution,
				}}},
			},
		},
	}

	if err := c.Redraw(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chart) SetDataset(ds dashboard.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending.Data.Datasets = slices.Clone(c.pending.Data.Datasets)
	c.pending.Data.Datasets[0] = toDataset(ds)
}

func (c *Chart) SetTimeUnit(unit dashboard.TimeUnit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending.Options.Scales.XAxes = slices.Clone(c.pending.Options.Scales.XAxes)
	c.pending.Options.Scales.XAxes[0].Time.Unit = string(unit)
}

func (c *Chart) Redraw() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drawn = clone(c.pending)
	return nil
}

// Config returns a copy of the drawn configuration.
func (c *Chart) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()

	return clone(c.drawn)
}

func toDataset(ds dashboard.Dataset) Dataset {
	data := ds.Data
	if data == nil {
		data = []dashboard.Point{}
	}
	return Dataset{
		Label:       ds.Label,
		Data:        data,
		BorderColor: ds.BorderColor,
	}
}

func clone(cfg Config) Config {
	out := cfg
	out.Data.Datasets = slices.Clone(cfg.Data.Datasets)
	out.Options.Scales.XAxes = slices.Clone(cfg.Options.Scales.XAxes)
	for i, axis := range out.Options.Scales.XAxes {
		out.Options.Scales.XAxes[i].Time.DisplayFormats = maps.Clone(axis.Time.DisplayFormats)
	}
	return out
}
