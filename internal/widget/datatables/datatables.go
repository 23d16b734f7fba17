// Package datatables backs the rates table with the DataTables jQuery plugin. The
// server keeps the rows in display order and hands the browser a ready configuration;
// paging, searching and re-sorting happen client side.
package datatables

import (
	"cmp"
	"encoding/json"
	"github.com/langowen/metals/internal/dashboard"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"iter"
	"slices"
)

var renderModes = []dashboard.RenderMode{
	dashboard.ModeDisplay,
	dashboard.ModeFilter,
	dashboard.ModeSort,
	dashboard.ModeType,
}

type Widget struct{}

func New() *Widget { return &Widget{} }

// Table is a rendered table. It never changes after Render.
type Table struct {
	spec dashboard.TableSpec
	rows []entities.MetalRate
}

func (w *Widget) Render(spec dashboard.TableSpec, rows []entities.MetalRate) (dashboard.TableHandle, error) {
	const op = "datatables.Render"

	for _, o := range spec.Order {
		if o.Column < 0 || o.Column >= len(spec.Columns) {
			return nil, errors.Errorf("%s: order column %d out of range", op, o.Column)
		}
	}
	if len(spec.PageSizeLabels) > 0 && len(spec.PageSizeLabels) != len(spec.PageSizes) {
		return nil, errors.Errorf("%s: %d page size labels for %d page sizes", op, len(spec.PageSizeLabels), len(spec.PageSizes))
	}

	t := &Table{spec: spec, rows: slices.Clone(rows)}
	slices.SortStableFunc(t.rows, t.compare)

	return t, nil
}

// Rows yields the rows in display order.
func (t *Table) Rows() iter.Seq[entities.MetalRate] {
	return slices.Values(t.rows)
}

func (t *Table) compare(a, b entities.MetalRate) int {
	for _, o := range t.spec.Order {
		col := t.spec.Columns[o.Column]

		var c int
		if col.Type == "num" {
			c = compareNull(cellDecimal(a, col.Data), cellDecimal(b, col.Data))
		} else {
			c = cmp.Compare(sortKey(col, a), sortKey(col, b))
		}

		if o.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func sortKey(col dashboard.Column, rec entities.MetalRate) string {
	if col.Render != nil {
		return col.Render(rec, dashboard.ModeSort)
	}
	return ""
}

func cellDecimal(rec entities.MetalRate, field string) decimal.NullDecimal {
	m, err := entities.ParseMetal(field)
	if err != nil {
		return decimal.NullDecimal{}
	}
	v, _ := rec.Value(m)
	return v
}

// Nulls sort before any value, like empty cells in DataTables.
func compareNull(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return a.Decimal.Cmp(b.Decimal)
}

type Column struct {
	Title string `json:"title"`
	Data  any    `json:"data"`
	Type  string `json:"type,omitempty"`
}

type Config struct {
	Data       []map[string]any `json:"data"`
	LengthMenu [2][]any         `json:"lengthMenu"`
	Columns    []Column         `json:"columns"`
	Order      [][2]any         `json:"order"`
	Language   map[string]any   `json:"language,omitempty"`
	Responsive bool             `json:"responsive"`
}

// Config returns the DataTables initialisation object. Rendered columns are sent as
// orthogonal data so the browser shows one representation and sorts on another.
func (t *Table) Config() Config {
	cfg := Config{
		Data:       make([]map[string]any, 0, len(t.rows)),
		Language:   t.spec.Labels,
		Responsive: true,
	}

	for _, size := range t.spec.PageSizes {
		cfg.LengthMenu[0] = append(cfg.LengthMenu[0], size)
	}
	for _, label := range t.spec.PageSizeLabels {
		cfg.LengthMenu[1] = append(cfg.LengthMenu[1], label)
	}
	if len(cfg.LengthMenu[1]) == 0 {
		cfg.LengthMenu[1] = cfg.LengthMenu[0]
	}

	for _, col := range t.spec.Columns {
		c := Column{Title: col.Title, Data: col.Data, Type: col.Type}
		if col.Render != nil {
			modes := map[string]string{"_": col.Data + "." + string(dashboard.ModeSort)}
			for _, mode := range renderModes {
				modes[string(mode)] = col.Data + "." + string(mode)
			}
			c.Data = modes
		}
		cfg.Columns = append(cfg.Columns, c)
	}

	for _, o := range t.spec.Order {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		cfg.Order = append(cfg.Order, [2]any{o.Column, dir})
	}

	for _, rec := range t.rows {
		cfg.Data = append(cfg.Data, t.row(rec))
	}

	return cfg
}

func (t *Table) row(rec entities.MetalRate) map[string]any {
	row := make(map[string]any, len(t.spec.Columns))
	for _, col := range t.spec.Columns {
		if col.Render != nil {
			cell := make(map[string]string, len(renderModes))
			for _, mode := range renderModes {
				cell[string(mode)] = col.Render(rec, mode)
			}
			row[col.Data] = cell
			continue
		}

		v := cellDecimal(rec, col.Data)
		if v.Valid {
			row[col.Data] = json.Number(v.Decimal.String())
		} else {
			row[col.Data] = nil
		}
	}
	return row
}
