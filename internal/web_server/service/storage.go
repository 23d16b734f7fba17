package service

import (
	"context"
	"github.com/langowen/metals/internal/entities"
)

type Storage interface {
	// LoadRates returns every stored date in ascending order. With ignoreNull only dates
	// where all four metals have a rate are returned.
	LoadRates(ctx context.Context, ignoreNull bool) ([]entities.MetalRate, error)
	// RangeDates returns the first and last stored date keys, or entities.ErrEmptyStore.
	RangeDates(ctx context.Context) (first, last string, err error)
}
