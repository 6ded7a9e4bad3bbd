package collector

import (
	"context"

	"SignalDesk/internal/model"
)

// Fetcher defines the interface for fetching signals, news and analysis.
type Fetcher interface {
	FeaturedSignals(ctx context.Context) ([]model.Signal, error)
	Signals(ctx context.Context, page Page) ([]model.Signal, error)
	SignalDetail(ctx context.Context, symbol string) (*model.SignalDetail, error)
	MarketNews(ctx context.Context, limit int) ([]model.NewsItem, error)
	SearchSymbols(ctx context.Context, query string) ([]model.Signal, error)
	Analysis(ctx context.Context, symbol string) (*model.Analysis, error)
	Name() string
}

// Page selects a window of the full signal list.
type Page struct {
	Limit  int
	Offset int
	Tier   string
}

// DefaultPage matches the backend defaults.
func DefaultPage() Page {
	return Page{Limit: 20, Offset: 0, Tier: "free"}
}
