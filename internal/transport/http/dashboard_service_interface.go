package http

import (
	"context"

	"trackhigh/internal/search"
	"trackhigh/internal/services"
	"trackhigh/internal/store"
	"trackhigh/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the HTTP
// handlers depend on
type DashboardServiceInterface interface {
	Records() ([]domain.Record, error)
	View(ctx context.Context, spec domain.FilterSpec) (domain.View, error)
	Options(spec domain.FilterSpec) (domain.OptionSet, error)
	Highs(symbols []string) ([]domain.StockHighs, error)
	UniqueValues(column domain.Column) ([]string, error)
	MonthOptions() ([]string, error)
	DefaultFilter() (domain.FilterSpec, error)
	SearchSymbols(query string, limit int) ([]search.Match, error)
	Status() services.Status
	Reload(ctx context.Context) (*store.Snapshot, error)
}

// Ensure DashboardService implements DashboardServiceInterface
var _ DashboardServiceInterface = (*services.DashboardService)(nil)
