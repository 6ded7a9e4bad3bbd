package collector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/operation"
	"SignalDesk/internal/resource"

	"github.com/shopspring/decimal"
)

func fastDelays() Delays {
	return Delays{
		FeaturedSignals: 5 * time.Millisecond,
		Signals:         5 * time.Millisecond,
		SignalDetail:    5 * time.Millisecond,
		MarketNews:      5 * time.Millisecond,
		Search:          5 * time.Millisecond,
		Analysis:        5 * time.Millisecond,
	}
}

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func newSampleCollector() *Collector {
	return NewCollector(NewSampleFetcher(), fastDelays())
}

func TestSampleDelays(t *testing.T) {
	d := SampleDelays()
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"featured-signals", d.FeaturedSignals, 500 * time.Millisecond},
		{"signal-detail", d.SignalDetail, 300 * time.Millisecond},
		{"market-news", d.MarketNews, 400 * time.Millisecond},
		{"search", d.Search, 200 * time.Millisecond},
		{"analysis", d.Analysis, 600 * time.Millisecond},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestFeaturedSignals_LoadingThenSixSignals(t *testing.T) {
	envs := operation.Collect(context.Background(), newSampleCollector().FeaturedSignals())
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(envs))
	}
	if !envs[0].IsLoading() {
		t.Errorf("expected loading first, got %v", envs[0].Kind())
	}
	signals, ok := envs[1].Value()
	if !envs[1].IsSuccess() || !ok {
		t.Fatalf("expected success, got %v", envs[1].Kind())
	}
	if len(signals) != 6 {
		t.Fatalf("expected 6 signals, got %d", len(signals))
	}
	symbols := map[string]bool{}
	for _, s := range signals {
		symbols[s.Symbol] = true
	}
	for _, want := range []string{"NVDA", "AAPL"} {
		if !symbols[want] {
			t.Errorf("expected %s among featured signals", want)
		}
	}
}

func TestSignalDetail_UnknownSymbolFallsBack(t *testing.T) {
	env, ok := operation.Terminal(context.Background(), newSampleCollector().SignalDetail("ZZZZ"))
	if !ok || !env.IsSuccess() {
		t.Fatalf("expected success for unknown symbol, got %v", env.Kind())
	}
	detail, _ := env.Value()
	if detail.Signal.Symbol != "AAPL" {
		t.Errorf("expected fallback to first sample signal AAPL, got %s", detail.Signal.Symbol)
	}
	if detail.Risk != model.RiskMedium {
		t.Errorf("expected medium risk, got %s", detail.Risk)
	}
	wantSupport := detail.Signal.CurrentPrice.Mul(decimalFrom(t, "0.95"))
	if !detail.SupportLevel.Equal(wantSupport) {
		t.Errorf("support level: expected %s, got %s", wantSupport, detail.SupportLevel)
	}
	if !detail.ResistanceLevel.Equal(detail.Signal.TargetPrice) {
		t.Errorf("resistance should equal target price, got %s", detail.ResistanceLevel)
	}
}

func TestSignalDetail_KnownSymbol(t *testing.T) {
	env, _ := operation.Terminal(context.Background(), newSampleCollector().SignalDetail("TSLA"))
	detail, _ := env.Value()
	if detail.Signal.Symbol != "TSLA" || detail.Signal.Type != model.SignalSell {
		t.Errorf("expected TSLA sell signal, got %s %s", detail.Signal.Symbol, detail.Signal.Type)
	}
}

func TestMarketNews_Limit(t *testing.T) {
	env, ok := operation.Terminal(context.Background(), newSampleCollector().MarketNews(2))
	if !ok || !env.IsSuccess() {
		t.Fatalf("expected success, got %v", env.Kind())
	}
	items, _ := env.Value()
	if len(items) > 2 {
		t.Fatalf("expected at most 2 items, got %d", len(items))
	}
	if items[0].ID != "1" || items[1].ID != "2" {
		t.Errorf("expected provider order 1,2 got %s,%s", items[0].ID, items[1].ID)
	}
	if !items[0].Timestamp.After(items[1].Timestamp) {
		t.Error("expected newest item first")
	}
}

func TestMarketNews_AllItemsNewestFirst(t *testing.T) {
	env, _ := operation.Terminal(context.Background(), newSampleCollector().MarketNews(10))
	items, _ := env.Value()
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Timestamp.After(items[i-1].Timestamp) {
			t.Errorf("item %d is newer than item %d", i, i-1)
		}
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	env, ok := operation.Terminal(context.Background(), newSampleCollector().Search("aa"))
	if !ok || !env.IsSuccess() {
		t.Fatalf("expected success, got %v", env.Kind())
	}
	results, _ := env.Value()
	if len(results) == 0 {
		t.Fatal("expected matches for 'aa'")
	}
	found := false
	for _, s := range results {
		if !strings.Contains(strings.ToLower(s.Symbol), "aa") && !strings.Contains(strings.ToLower(s.Name), "aa") {
			t.Errorf("%s (%s) does not contain 'aa'", s.Symbol, s.Name)
		}
		if s.Symbol == "AAPL" {
			found = true
		}
	}
	if !found {
		t.Error("expected AAPL in results")
	}
}

func TestSearch_MatchesName(t *testing.T) {
	env, _ := operation.Terminal(context.Background(), newSampleCollector().Search("apple"))
	results, _ := env.Value()
	if len(results) != 1 || results[0].Symbol != "AAPL" {
		t.Errorf("expected only AAPL for 'apple', got %v", results)
	}
}

func TestSearch_BlankShortCircuits(t *testing.T) {
	c := NewCollector(NewSampleFetcher(), SampleDelays())
	for _, q := range []string{"", "   ", "\t\n"} {
		start := time.Now()
		envs := operation.Collect(context.Background(), c.Search(q))
		elapsed := time.Since(start)

		if len(envs) != 1 {
			t.Fatalf("query %q: expected exactly 1 envelope, got %d", q, len(envs))
		}
		if !envs[0].Equal(resource.Success([]model.Signal{})) {
			t.Errorf("query %q: expected Success([]), got %v", q, envs[0].Kind())
		}
		if elapsed > 50*time.Millisecond {
			t.Errorf("query %q: expected immediate result, took %v", q, elapsed)
		}
	}
}

func TestSearch_NonEmptyWaitsForDelay(t *testing.T) {
	delays := fastDelays()
	delays.Search = 50 * time.Millisecond
	c := NewCollector(NewSampleFetcher(), delays)

	start := time.Now()
	envs := operation.Collect(context.Background(), c.Search("NV"))
	elapsed := time.Since(start)

	if len(envs) != 2 || !envs[0].IsLoading() || !envs[1].IsSuccess() {
		t.Fatalf("expected loading then success, got %d envelopes", len(envs))
	}
	if elapsed < delays.Search {
		t.Errorf("expected at least %v, took %v", delays.Search, elapsed)
	}
}

func TestAnalysis_DerivedScores(t *testing.T) {
	env, ok := operation.Terminal(context.Background(), newSampleCollector().Analysis("NVDA"))
	if !ok || !env.IsSuccess() {
		t.Fatalf("expected success, got %v", env.Kind())
	}
	a, _ := env.Value()
	if a.Symbol != "NVDA" || a.Recommendation != model.SignalStrongBuy {
		t.Errorf("unexpected analysis header: %s %s", a.Symbol, a.Recommendation)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"overall", a.OverallScore, 0.95},
		{"technical", a.TechnicalScore, 1.00},
		{"fundamental", a.FundamentalScore, 0.93},
		{"sentiment", a.SentimentScore, 0.98},
	}
	for _, c := range checks {
		if diff := c.got - c.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s: expected %.2f, got %.4f", c.name, c.want, c.got)
		}
	}
	if len(a.KeyMetrics) != 4 {
		t.Errorf("expected 4 key metrics, got %d", len(a.KeyMetrics))
	}
}

func TestSignals_Paging(t *testing.T) {
	c := newSampleCollector()
	env, _ := operation.Terminal(context.Background(), c.Signals(Page{Limit: 2, Offset: 4}))
	page, _ := env.Value()
	if len(page) != 2 || page[0].Symbol != "NVDA" || page[1].Symbol != "AMZN" {
		t.Errorf("unexpected page: %v", page)
	}

	env, _ = operation.Terminal(context.Background(), c.Signals(Page{Limit: 5, Offset: 10}))
	page, ok := env.Value()
	if !env.IsSuccess() || !ok || page == nil || len(page) != 0 {
		t.Errorf("expected empty non-nil page past the end, got %v", page)
	}
}

type failingFetcher struct {
	SampleFetcher
	err error
}

func (f *failingFetcher) FeaturedSignals(context.Context) ([]model.Signal, error) { return nil, f.err }
func (f *failingFetcher) SignalDetail(context.Context, string) (*model.SignalDetail, error) {
	return nil, nil
}

func TestFeaturedSignals_FailureMapsToError(t *testing.T) {
	c := NewCollector(&failingFetcher{err: errors.New("upstream timeout")}, fastDelays())
	envs := operation.Collect(context.Background(), c.FeaturedSignals())
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes, got %d", len(envs))
	}
	if !envs[1].IsError() || envs[1].Message() != "upstream timeout" {
		t.Errorf("expected error 'upstream timeout', got %v %q", envs[1].Kind(), envs[1].Message())
	}
}

func TestSignalDetail_NilResultIsError(t *testing.T) {
	c := NewCollector(&failingFetcher{}, fastDelays())
	env, _ := operation.Terminal(context.Background(), c.SignalDetail("AAPL"))
	if !env.IsError() {
		t.Errorf("expected error for empty detail, got %v", env.Kind())
	}
}
