package entities

import (
	"fmt"
	"github.com/shopspring/decimal"
	"time"
)

const (
	DateKeyFormat     = "2006-01-02"
	DateDisplayFormat = "02.01.2006"
)

// MetalRate is one dated observation of the CBR precious metal rates (RUB per gram).
// DateKey is the canonical ISO key used for sorting and filtering, DateDisplay is only shown.
type MetalRate struct {
	DateDisplay string              `json:"date"`
	DateKey     string              `json:"date_iso"`
	Gold        decimal.NullDecimal `json:"gold"`
	Silver      decimal.NullDecimal `json:"silver"`
	Platinum    decimal.NullDecimal `json:"platinum"`
	Palladium   decimal.NullDecimal `json:"palladium"`
}

func NewMetalRate(date time.Time) MetalRate {
	return MetalRate{
		DateDisplay: date.Format(DateDisplayFormat),
		DateKey:     date.Format(DateKeyFormat),
	}
}

// Date parses the canonical key.
func (r MetalRate) Date() (time.Time, error) {
	return time.Parse(DateKeyFormat, r.DateKey)
}

func (r MetalRate) Value(m Metal) (decimal.NullDecimal, error) {
	switch m {
	case Gold:
		return r.Gold, nil
	case Silver:
		return r.Silver, nil
	case Platinum:
		return r.Platinum, nil
	case Palladium:
		return r.Palladium, nil
	}
	return decimal.NullDecimal{}, fmt.Errorf("%w: %q", ErrUnknownMetal, string(m))
}

// Set stores v for metal m; the record must not be shared yet.
func (r *MetalRate) Set(m Metal, v decimal.Decimal) error {
	nv := decimal.NewNullDecimal(v)
	switch m {
	case Gold:
		r.Gold = nv
	case Silver:
		r.Silver = nv
	case Platinum:
		r.Platinum = nv
	case Palladium:
		r.Palladium = nv
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMetal, string(m))
	}
	return nil
}

// Complete reports whether all four metals have a value.
func (r MetalRate) Complete() bool {
	return r.Gold.Valid && r.Silver.Valid && r.Platinum.Valid && r.Palladium.Valid
}
