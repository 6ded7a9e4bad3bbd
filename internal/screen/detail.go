package screen

import (
	"context"
	"strings"
	"sync"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/model"
	"SignalDesk/internal/store"
)

// DetailData is the content of the signal detail screen.
type DetailData struct {
	Symbol   string
	Detail   *model.SignalDetail
	Analysis *model.Analysis
}

// SignalDetail loads the detail and the analysis of one symbol.
type SignalDetail struct {
	collector *collector.Collector
	holder    *store.Holder[DetailData]

	mu     sync.Mutex
	symbol string
}

// NewSignalDetail creates an empty detail screen. Nothing loads until Load.
func NewSignalDetail(c *collector.Collector) *SignalDetail {
	return &SignalDetail{collector: c, holder: store.New(DetailData{})}
}

// Load switches the screen to symbol and fetches its detail and analysis.
// Data of a previous symbol is dropped.
func (s *SignalDetail) Load(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.Lock()
	s.symbol = symbol
	s.mu.Unlock()

	s.holder.Reset(func(d DetailData) DetailData {
		if d.Symbol != symbol {
			return DetailData{Symbol: symbol}
		}
		return d
	}, KeySignalDetail, KeyAnalysis)
	s.launch(symbol)
}

// Refresh reloads the current symbol. It does nothing before the first Load.
func (s *SignalDetail) Refresh() {
	s.mu.Lock()
	symbol := s.symbol
	s.mu.Unlock()
	if symbol == "" {
		return
	}
	s.launch(symbol)
}

func (s *SignalDetail) launch(symbol string) {
	store.Launch(s.holder, KeySignalDetail, s.collector.SignalDetail(symbol),
		func(d DetailData, detail *model.SignalDetail) DetailData {
			d.Detail = detail
			return d
		})
	store.Launch(s.holder, KeyAnalysis, s.collector.Analysis(symbol),
		func(d DetailData, a *model.Analysis) DetailData {
			d.Analysis = a
			return d
		})
}

func (s *SignalDetail) Current() store.State[DetailData] { return s.holder.Current() }

func (s *SignalDetail) Subscribe(observer func(store.State[DetailData])) func() {
	return s.holder.Subscribe(observer)
}

// Settle waits for running loads to finish.
func (s *SignalDetail) Settle(ctx context.Context) (store.State[DetailData], error) {
	return s.holder.Settle(ctx)
}

func (s *SignalDetail) Close() { s.holder.Close() }
