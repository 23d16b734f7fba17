package fetcher

import (
	"context"
	"github.com/langowen/metals/internal/entities"
	"time"
)

type HTTPClient interface {
	FetchRates(ctx context.Context, from, to time.Time) ([]entities.MetalRate, error)
}
