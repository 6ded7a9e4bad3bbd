package screen

import (
	"context"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/model"
	"SignalDesk/internal/store"
)

// SearchData is the content of the search screen.
type SearchData struct {
	Query   string
	Results []model.Signal
}

// Search runs symbol searches. A newer query supersedes one still running.
type Search struct {
	collector *collector.Collector
	holder    *store.Holder[SearchData]
}

func NewSearch(c *collector.Collector) *Search {
	return &Search{collector: c, holder: store.New(SearchData{Results: []model.Signal{}})}
}

// Query records q and searches for it. A blank q clears the results at once.
func (s *Search) Query(q string) {
	s.holder.Reset(func(d SearchData) SearchData {
		d.Query = q
		return d
	}, KeySearch)
	store.Launch(s.holder, KeySearch, s.collector.Search(q),
		func(d SearchData, results []model.Signal) SearchData {
			d.Results = results
			return d
		})
}

func (s *Search) Current() store.State[SearchData] { return s.holder.Current() }

func (s *Search) Subscribe(observer func(store.State[SearchData])) func() {
	return s.holder.Subscribe(observer)
}

// Settle waits for running loads to finish.
func (s *Search) Settle(ctx context.Context) (store.State[SearchData], error) {
	return s.holder.Settle(ctx)
}

func (s *Search) Close() { s.holder.Close() }
