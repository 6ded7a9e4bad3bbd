package collector

import (
	"context"
	"errors"
	"strings"
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/operation"
	"SignalDesk/internal/resource"
)

// Default failure messages, used when an error carries no text.
const (
	msgSignalsFailed  = "Failed to fetch signals"
	msgDetailFailed   = "Failed to fetch signal detail"
	msgNewsFailed     = "Failed to fetch news"
	msgSearchFailed   = "Search failed"
	msgAnalysisFailed = "Failed to fetch analysis"
)

var errEmptyResponse = errors.New("empty response")

// Delays is the simulated latency applied per operation kind.
type Delays struct {
	FeaturedSignals time.Duration
	Signals         time.Duration
	SignalDetail    time.Duration
	MarketNews      time.Duration
	Search          time.Duration
	Analysis        time.Duration
}

// SampleDelays are the latencies used with the sample data table.
func SampleDelays() Delays {
	return Delays{
		FeaturedSignals: 500 * time.Millisecond,
		Signals:         500 * time.Millisecond,
		SignalDetail:    300 * time.Millisecond,
		MarketNews:      400 * time.Millisecond,
		Search:          200 * time.Millisecond,
		Analysis:        600 * time.Millisecond,
	}
}

// Collector turns Fetcher calls into operation sources.
type Collector struct {
	Fetcher Fetcher
	Delays  Delays
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, delays Delays) *Collector {
	return &Collector{Fetcher: fetcher, Delays: delays}
}

// FeaturedSignals is the dashboard's signal list.
func (c *Collector) FeaturedSignals() operation.Source[[]model.Signal] {
	return operation.NewTask("featured-signals", c.Delays.FeaturedSignals, msgSignalsFailed,
		func(ctx context.Context) ([]model.Signal, error) {
			return nonNil(c.Fetcher.FeaturedSignals(ctx))
		})
}

// Signals is one page of the full signal list.
func (c *Collector) Signals(page Page) operation.Source[[]model.Signal] {
	return operation.NewTask("signals", c.Delays.Signals, msgSignalsFailed,
		func(ctx context.Context) ([]model.Signal, error) {
			return nonNil(c.Fetcher.Signals(ctx, page))
		})
}

// SignalDetail is the detail view of one symbol.
func (c *Collector) SignalDetail(symbol string) operation.Source[*model.SignalDetail] {
	return operation.NewTask("signal-detail", c.Delays.SignalDetail, msgDetailFailed,
		func(ctx context.Context) (*model.SignalDetail, error) {
			return present(c.Fetcher.SignalDetail(ctx, symbol))
		})
}

// MarketNews returns at most limit news items.
func (c *Collector) MarketNews(limit int) operation.Source[[]model.NewsItem] {
	return operation.NewTask("market-news", c.Delays.MarketNews, msgNewsFailed,
		func(ctx context.Context) ([]model.NewsItem, error) {
			items, err := nonNil(c.Fetcher.MarketNews(ctx, limit))
			if err == nil && limit >= 0 && len(items) > limit {
				items = items[:limit]
			}
			return items, err
		})
}

// Search looks up symbols matching query. A blank query yields an empty
// result immediately, without a Loading envelope.
func (c *Collector) Search(query string) operation.Source[[]model.Signal] {
	if strings.TrimSpace(query) == "" {
		return operation.Just[[]model.Signal]{Envelope: resource.Success([]model.Signal{})}
	}
	return operation.NewTask("search", c.Delays.Search, msgSearchFailed,
		func(ctx context.Context) ([]model.Signal, error) {
			return nonNil(c.Fetcher.SearchSymbols(ctx, query))
		})
}

// Analysis is the scored analysis of one symbol.
func (c *Collector) Analysis(symbol string) operation.Source[*model.Analysis] {
	return operation.NewTask("analysis", c.Delays.Analysis, msgAnalysisFailed,
		func(ctx context.Context) (*model.Analysis, error) {
			return present(c.Fetcher.Analysis(ctx, symbol))
		})
}

// nonNil keeps Success payloads non-nil for list results.
func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func present[T any](v *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errEmptyResponse
	}
	return v, nil
}
