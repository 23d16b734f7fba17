// Package pngchart draws the rates chart to a PNG image with go-chart.
package pngchart

import (
	"bytes"
	"fmt"
	"github.com/langowen/metals/internal/dashboard"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"time"
)

const (
	defaultWidth  = 1024
	defaultHeight = 400

	dotWidth = 4
)

// Axis label layouts per time unit.
var unitLayouts = map[dashboard.TimeUnit]string{
	dashboard.UnitMonth: "02/01/2006",
	dashboard.UnitYear:  "2006",
}

type Widget struct {
	Width  int
	Height int
}

func New(width, height int) *Widget {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return &Widget{Width: width, Height: height}
}

type Chart struct {
	mu     sync.Mutex
	width  int
	height int
	cfg    dashboard.ChartConfig
	image  []byte
}

func (w *Widget) New(cfg dashboard.ChartConfig) (dashboard.ChartHandle, error) {
	c := &Chart{width: w.Width, height: w.Height, cfg: cfg}
	if err := c.Redraw(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chart) SetDataset(ds dashboard.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Dataset = ds
}

func (c *Chart) SetTimeUnit(unit dashboard.TimeUnit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.TimeUnit = unit
}

// PNG returns the last drawn image.
func (c *Chart) PNG() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.image)
}

func (c *Chart) Redraw() error {
	const op = "pngchart.Redraw"

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		xs []time.Time
		ys []float64
	)
	for _, p := range c.cfg.Dataset.Data {
		if !p.Y.Valid {
			continue
		}
		at, err := time.Parse(entities.DateKeyFormat, p.X)
		if err != nil {
			continue
		}
		xs = append(xs, at)
		ys = append(ys, p.Y.Decimal.InexactFloat64())
	}

	if len(xs) == 0 {
		img, err := c.blank()
		if err != nil {
			return errors.Wrap(err, op)
		}
		c.image = img
		return nil
	}

	stroke, err := parseColor(c.cfg.Dataset.BorderColor)
	if err != nil {
		return errors.Wrap(err, op)
	}

	layout := unitLayouts[c.cfg.TimeUnit]
	if layout == "" {
		layout = unitLayouts[dashboard.UnitMonth]
	}

	style := chart.Style{
		StrokeColor: stroke,
		StrokeWidth: 1.5,
	}
	if len(xs) == 1 {
		style.DotColor = stroke
		style.DotWidth = dotWidth
	}

	graph := chart.Chart{
		Width:  c.width,
		Height: c.height,
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return chart.TimeFromFloat64(f).Format(layout)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    c.cfg.Dataset.Label,
				XValues: xs,
				YValues: ys,
				Style:   style,
			},
		},
	}

	// A lone point has no x or y extent, so go-chart needs explicit ranges around it.
	if len(xs) == 1 {
		x, y := xs[0], ys[0]
		pad := max(1, math.Abs(y)*0.05)

		graph.XAxis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(x.AddDate(0, 0, -1)),
			Max: chart.TimeToFloat64(x.AddDate(0, 0, 1)),
		}
		graph.YAxis.Range = &chart.ContinuousRange{Min: y - pad, Max: y + pad}
	}
	if c.cfg.Dataset.Label != "" {
		graph.Title = fmt.Sprintf("Стоимость грамма %s в рублях", c.cfg.Dataset.Label)
	}
	if c.cfg.ShowLegend {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return errors.Wrap(err, op)
	}
	c.image = buf.Bytes()

	return nil
}

func (c *Chart) blank() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			img.Set(x, y, color.White)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseColor reads "rgb(r, g, b)" and "#rrggbb" colors.
func parseColor(s string) (drawing.Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "rgb(%d, %d, %d)", &r, &g, &b); err == nil {
		return drawing.Color{R: r, G: g, B: b, A: 255}, nil
	}
	if len(s) == 7 && s[0] == '#' {
		return drawing.ColorFromHex(s[1:]), nil
	}
	return drawing.Color{}, errors.Errorf("unsupported color %q", s)
}
