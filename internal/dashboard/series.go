package dashboard

import (
	"encoding/json"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"
)

type TimeUnit string

const (
	UnitMonth TimeUnit = "month"
	UnitYear  TimeUnit = "year"
)

// Above this many points the x axis is labeled by year.
const yearUnitThreshold = 365

type Point struct {
	X string
	Y decimal.NullDecimal
}

// MarshalJSON writes y as a bare number, or null when the metal had no value that day.
func (p Point) MarshalJSON() ([]byte, error) {
	y := json.RawMessage("null")
	if p.Y.Valid {
		y = json.RawMessage(p.Y.Decimal.String())
	}
	return json.Marshal(struct {
		X string          `json:"x"`
		Y json.RawMessage `json:"y"`
	}{X: p.X, Y: y})
}

type Series struct {
	Metal    entities.Metal `json:"metal"`
	Data     []Point        `json:"data"`
	Color    string         `json:"color"`
	TimeUnit TimeUnit       `json:"time_unit"`
}

// DateRange is inclusive on both ends. A nil bound does not restrict.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// ParseBound parses a date control value. Empty or malformed input yields nil.
func ParseBound(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(entities.DateKeyFormat, s)
	if err != nil {
		slog.Debug("ignoring malformed date bound", "value", s, "error", err)
		return nil
	}
	return &t
}

func ParseRange(from, to string) DateRange {
	return DateRange{From: ParseBound(from), To: ParseBound(to)}
}

// BuildSeries projects the rows inside rng onto metal, ordered by date ascending.
func BuildSeries(rows iter.Seq[entities.MetalRate], metal entities.Metal, rng DateRange) (Series, error) {
	const op = "dashboard.BuildSeries"

	color, err := metal.Color()
	if err != nil {
		return Series{}, errors.Wrap(err, op)
	}

	type dated struct {
		at    time.Time
		point Point
	}
	var picked []dated

	for row := range rows {
		at, err := row.Date()
		if err != nil {
			slog.Debug("skipping row with malformed date key", "op", op, "date_key", row.DateKey)
			continue
		}
		if !rng.Contains(at) {
			continue
		}

		value, err := row.Value(metal)
		if err != nil {
			return Series{}, errors.Wrap(err, op)
		}
		picked = append(picked, dated{at: at, point: Point{X: row.DateKey, Y: value}})
	}

	slices.SortStableFunc(picked, func(a, b dated) int { return a.at.Compare(b.at) })

	data := make([]Point, len(picked))
	for i, p := range picked {
		data[i] = p.point
	}

	unit := UnitMonth
	if len(data) > yearUnitThreshold {
		unit = UnitYear
	}

	return Series{
		Metal:    metal,
		Data:     data,
		Color:    color,
		TimeUnit: unit,
	}, nil
}
