package fetcher

import (
	"context"
	"github.com/langowen/metals/internal/entities"
	"time"
)

type Storage interface {
	// LastDate returns the latest stored date; ok is false when nothing is stored yet.
	LastDate(ctx context.Context) (last time.Time, ok bool, err error)
	// SaveRates inserts the dates that are not stored yet and returns how many were added.
	SaveRates(ctx context.Context, rates []entities.MetalRate) (int, error)
	Count(ctx context.Context) (int, error)
}
