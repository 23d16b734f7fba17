package dashboard

import (
	"github.com/langowen/metals/internal/dashboard/locale"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"iter"
	"slices"
)

// RenderMode is the purpose a cell value is requested for.
type RenderMode string

const (
	ModeDisplay RenderMode = "display"
	ModeFilter  RenderMode = "filter"
	ModeSort    RenderMode = "sort"
	ModeType    RenderMode = "type"
)

// PageSizeAll shows every row on one page.
const PageSizeAll = -1

var PageSizes = []int{5, 10, 25, 50, PageSizeAll}

type Column struct {
	Title string
	// Data is the record field the column is bound to.
	Data string
	// Type is a widget type hint, "num" for numeric sorting.
	Type   string
	Render func(rec entities.MetalRate, mode RenderMode) string
}

type OrderBy struct {
	Column int
	Desc   bool
}

type TableSpec struct {
	Columns        []Column
	Order          []OrderBy
	PageSizes      []int
	PageSizeLabels []string
	Labels         map[string]any
}

// RowSource iterates the rows a table currently knows, in display order.
type RowSource interface {
	Rows() iter.Seq[entities.MetalRate]
}

type TableHandle interface {
	RowSource
}

// TableWidget does the paging, searching and sorting of a table.
type TableWidget interface {
	Render(spec TableSpec, rows []entities.MetalRate) (TableHandle, error)
}

// RenderDate keeps the two date representations apart: people read DateDisplay,
// sorting and type detection work on DateKey.
func RenderDate(rec entities.MetalRate, mode RenderMode) string {
	if mode == ModeDisplay || mode == ModeFilter {
		return rec.DateDisplay
	}
	return rec.DateKey
}

type TableView struct {
	spec   TableSpec
	handle TableHandle
}

func NewTableView(widget TableWidget, store *Store, loc *locale.Locale) (*TableView, error) {
	const op = "dashboard.NewTableView"

	spec := DefaultTableSpec(loc)

	handle, err := widget.Render(spec, store.Records())
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return &TableView{spec: spec, handle: handle}, nil
}

// DefaultTableSpec describes the rates table: a date column followed by one numeric
// column per metal, newest dates first.
func DefaultTableSpec(loc *locale.Locale) TableSpec {
	if loc == nil {
		loc = &locale.Locale{}
	}

	columns := []Column{{Title: loc.Column("date", "Date"), Data: "date", Render: RenderDate}}
	for _, m := range entities.Metals {
		columns = append(columns, Column{Title: loc.Column(m.String(), m.Title()), Data: m.String(), Type: "num"})
	}

	return TableSpec{
		Columns:        columns,
		Order:          []OrderBy{{Column: 0, Desc: true}},
		PageSizes:      slices.Clone(PageSizes),
		PageSizeLabels: loc.PageSizes,
		Labels:         loc.Language,
	}
}

func (v *TableView) Spec() TableSpec { return v.spec }

func (v *TableView) Handle() TableHandle { return v.handle }

func (v *TableView) Rows() iter.Seq[entities.MetalRate] { return v.handle.Rows() }
