package public

import (
	"context"
	"github.com/langowen/metals/internal/dashboard"
	"github.com/langowen/metals/internal/entities"
	"github.com/langowen/metals/internal/web_server/service"
	"github.com/langowen/metals/internal/widget/chartjs"
	"github.com/langowen/metals/internal/widget/datatables"
)

type Service interface {
	NewPage() (*service.Page, error)
	Chart(sessionID string, in dashboard.FilterInput) (chartjs.Config, error)
	ChartPNG(sessionID string, in dashboard.FilterInput) ([]byte, error)
	Rates() []entities.MetalRate
	Table() (datatables.Config, error)
	Health(ctx context.Context) (service.Health, error)
}
