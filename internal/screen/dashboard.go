// Package screen holds the per-screen state of the application: each screen
// owns a store.Holder fed by collector sources.
package screen

import (
	"context"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/model"
	"SignalDesk/internal/store"

	"github.com/rs/zerolog/log"
)

// Source keys, shared with log fields.
const (
	KeyFeaturedSignals = "featured-signals"
	KeyMarketNews      = "market-news"
	KeySignalDetail    = "signal-detail"
	KeyAnalysis        = "analysis"
	KeySearch          = "search"
)

// DefaultNewsLimit is the number of news items shown on the dashboard.
const DefaultNewsLimit = 10

// DashboardData is the content of the dashboard screen.
type DashboardData struct {
	FeaturedSignals []model.Signal
	MarketNews      []model.NewsItem
}

// Dashboard loads featured signals and market news.
type Dashboard struct {
	collector *collector.Collector
	newsLimit int
	holder    *store.Holder[DashboardData]
}

// NewDashboard creates the dashboard and starts loading both sources.
func NewDashboard(c *collector.Collector, newsLimit int) *Dashboard {
	if newsLimit <= 0 {
		newsLimit = DefaultNewsLimit
	}
	d := &Dashboard{
		collector: c,
		newsLimit: newsLimit,
		holder:    store.New(DashboardData{}),
	}
	d.Refresh()
	return d
}

// Refresh restarts both sources. Results of earlier, still running loads are
// discarded.
func (d *Dashboard) Refresh() {
	log.Debug().Str("screen", "dashboard").Msg("refresh")
	store.Launch(d.holder, KeyFeaturedSignals, d.collector.FeaturedSignals(),
		func(data DashboardData, signals []model.Signal) DashboardData {
			data.FeaturedSignals = signals
			return data
		})
	store.Launch(d.holder, KeyMarketNews, d.collector.MarketNews(d.newsLimit),
		func(data DashboardData, news []model.NewsItem) DashboardData {
			data.MarketNews = news
			return data
		})
}

func (d *Dashboard) Current() store.State[DashboardData] { return d.holder.Current() }

func (d *Dashboard) Subscribe(observer func(store.State[DashboardData])) func() {
	return d.holder.Subscribe(observer)
}

// Settle waits for running loads to finish.
func (d *Dashboard) Settle(ctx context.Context) (store.State[DashboardData], error) {
	return d.holder.Settle(ctx)
}

func (d *Dashboard) Close() { d.holder.Close() }
