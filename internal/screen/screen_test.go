package screen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/model"
	"SignalDesk/internal/store"
)

// countingFetcher wraps the sample data, counting featured calls and
// optionally failing them.
type countingFetcher struct {
	*collector.SampleFetcher
	featuredCalls atomic.Int32
	failFeatured  atomic.Bool
}

func (f *countingFetcher) FeaturedSignals(ctx context.Context) ([]model.Signal, error) {
	f.featuredCalls.Add(1)
	if f.failFeatured.Load() {
		return nil, errors.New("backend unavailable")
	}
	return f.SampleFetcher.FeaturedSignals(ctx)
}

func newTestCollector(delay time.Duration) (*collector.Collector, *countingFetcher) {
	f := &countingFetcher{SampleFetcher: collector.NewSampleFetcher()}
	return collector.NewCollector(f, collector.Delays{
		FeaturedSignals: delay,
		Signals:         delay,
		SignalDetail:    delay,
		MarketNews:      delay,
		Search:          delay,
		Analysis:        delay,
	}), f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func dashboardLoaded(d *Dashboard) func() bool {
	return func() bool {
		s := d.Current()
		return !s.IsLoading && len(s.Data.FeaturedSignals) > 0 && len(s.Data.MarketNews) > 0
	}
}

func TestDashboard_LoadsOnConstruction(t *testing.T) {
	c, _ := newTestCollector(5 * time.Millisecond)
	d := NewDashboard(c, 2)
	defer d.Close()

	waitFor(t, "dashboard loaded", dashboardLoaded(d))
	s := d.Current()
	if len(s.Data.FeaturedSignals) != 6 {
		t.Errorf("expected 6 featured signals, got %d", len(s.Data.FeaturedSignals))
	}
	if len(s.Data.MarketNews) > 2 {
		t.Errorf("expected at most 2 news items, got %d", len(s.Data.MarketNews))
	}
	if s.Error != "" {
		t.Errorf("unexpected error %q", s.Error)
	}
}

func TestDashboard_DefaultNewsLimit(t *testing.T) {
	c, _ := newTestCollector(time.Millisecond)
	d := NewDashboard(c, 0)
	defer d.Close()
	if d.newsLimit != DefaultNewsLimit {
		t.Errorf("expected default limit %d, got %d", DefaultNewsLimit, d.newsLimit)
	}
}

func TestDashboard_ObserverSeesLoadingThenData(t *testing.T) {
	c, _ := newTestCollector(20 * time.Millisecond)
	d := NewDashboard(c, 10)
	defer d.Close()

	var mu sync.Mutex
	var seen []store.State[DashboardData]
	unsub := d.Subscribe(func(s store.State[DashboardData]) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	defer unsub()

	waitFor(t, "dashboard loaded", dashboardLoaded(d))
	waitFor(t, "last snapshot delivered", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1].Version == d.Current().Version
	})

	mu.Lock()
	defer mu.Unlock()
	sawLoading := false
	for _, s := range seen {
		sawLoading = sawLoading || s.IsLoading
	}
	if !sawLoading {
		t.Error("expected a loading snapshot before the data arrived")
	}
	if last := seen[len(seen)-1]; last.IsLoading || len(last.Data.FeaturedSignals) != 6 {
		t.Errorf("expected the last delivered snapshot to carry the data, got %+v", last)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].Version <= seen[i-1].Version {
			t.Errorf("versions out of order: %d after %d", seen[i].Version, seen[i-1].Version)
		}
	}
}

func TestDashboard_RefreshFailureKeepsStaleData(t *testing.T) {
	c, f := newTestCollector(5 * time.Millisecond)
	d := NewDashboard(c, 10)
	defer d.Close()
	waitFor(t, "dashboard loaded", dashboardLoaded(d))

	f.failFeatured.Store(true)
	d.Refresh()
	waitFor(t, "error surfaced", func() bool {
		s := d.Current()
		return s.Error != "" && !s.IsLoading
	})

	s := d.Current()
	if s.Error != "backend unavailable" {
		t.Errorf("unexpected error %q", s.Error)
	}
	if len(s.Data.FeaturedSignals) != 6 {
		t.Errorf("expected stale signals to remain, got %d", len(s.Data.FeaturedSignals))
	}

	f.failFeatured.Store(false)
	d.Refresh()
	waitFor(t, "error cleared", func() bool {
		s := d.Current()
		return s.Error == "" && !s.IsLoading
	})
}

func TestDashboard_RefreshSupersedesInitialLoad(t *testing.T) {
	c, f := newTestCollector(50 * time.Millisecond)
	d := NewDashboard(c, 10)
	defer d.Close()
	d.Refresh()

	waitFor(t, "dashboard loaded", dashboardLoaded(d))
	time.Sleep(60 * time.Millisecond)
	if n := f.featuredCalls.Load(); n != 1 {
		t.Errorf("expected the superseded load to stop before fetching, got %d fetches", n)
	}
}

func TestSignalDetail_LoadAndSwitch(t *testing.T) {
	c, _ := newTestCollector(5 * time.Millisecond)
	s := NewSignalDetail(c)
	defer s.Close()

	loaded := func(symbol string) func() bool {
		return func() bool {
			st := s.Current()
			return !st.IsLoading && st.Data.Detail != nil && st.Data.Analysis != nil &&
				st.Data.Detail.Signal.Symbol == symbol && st.Data.Analysis.Symbol == symbol
		}
	}

	s.Load(" nvda ")
	waitFor(t, "NVDA loaded", loaded("NVDA"))
	if got := s.Current().Data.Symbol; got != "NVDA" {
		t.Errorf("expected symbol NVDA, got %q", got)
	}

	s.Load("TSLA")
	st := s.Current()
	if st.Data.Symbol != "TSLA" || st.Data.Detail != nil {
		t.Errorf("expected previous symbol's data dropped on switch, got %+v", st.Data)
	}
	waitFor(t, "TSLA loaded", loaded("TSLA"))
}

func TestSignalDetail_RefreshBeforeLoadIsNoop(t *testing.T) {
	c, _ := newTestCollector(time.Millisecond)
	s := NewSignalDetail(c)
	defer s.Close()

	s.Refresh()
	time.Sleep(20 * time.Millisecond)
	if v := s.Current().Version; v != 0 {
		t.Errorf("expected no transitions, got version %d", v)
	}
}

func TestSignalDetail_RefreshReloads(t *testing.T) {
	c, _ := newTestCollector(5 * time.Millisecond)
	s := NewSignalDetail(c)
	defer s.Close()
	s.Load("AAPL")
	waitFor(t, "loaded", func() bool { return s.Current().Data.Analysis != nil && !s.Current().IsLoading })

	before := s.Current().Version
	s.Refresh()
	waitFor(t, "reloaded", func() bool {
		st := s.Current()
		return st.Version > before && !st.IsLoading
	})
	if s.Current().Data.Symbol != "AAPL" {
		t.Errorf("refresh changed symbol to %q", s.Current().Data.Symbol)
	}
}

func TestSearch_Query(t *testing.T) {
	c, _ := newTestCollector(5 * time.Millisecond)
	s := NewSearch(c)
	defer s.Close()

	s.Query("aa")
	waitFor(t, "results", func() bool {
		st := s.Current()
		return !st.IsLoading && len(st.Data.Results) > 0
	})
	st := s.Current()
	if st.Data.Query != "aa" || st.Data.Results[0].Symbol != "AAPL" {
		t.Errorf("unexpected search state %+v", st.Data)
	}
}

func TestSearch_BlankClearsWithoutLoading(t *testing.T) {
	c, _ := newTestCollector(5 * time.Millisecond)
	s := NewSearch(c)
	defer s.Close()

	s.Query("apple")
	waitFor(t, "results", func() bool { return len(s.Current().Data.Results) == 1 })

	var mu sync.Mutex
	var seen []store.State[SearchData]
	unsub := s.Subscribe(func(st store.State[SearchData]) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})
	defer unsub()

	s.Query("   ")
	waitFor(t, "cleared", func() bool {
		st := s.Current()
		return st.Data.Results != nil && len(st.Data.Results) == 0
	})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, st := range seen {
		if st.IsLoading {
			t.Errorf("blank query produced a loading snapshot (version %d)", st.Version)
		}
	}
}

func TestSearch_NewerQueryWins(t *testing.T) {
	c, _ := newTestCollector(30 * time.Millisecond)
	s := NewSearch(c)
	defer s.Close()

	s.Query("apple")
	s.Query("nvidia")
	waitFor(t, "results", func() bool {
		st := s.Current()
		return !st.IsLoading && len(st.Data.Results) > 0
	})
	time.Sleep(50 * time.Millisecond)

	st := s.Current()
	if st.Data.Query != "nvidia" || len(st.Data.Results) != 1 || st.Data.Results[0].Symbol != "NVDA" {
		t.Errorf("expected only the latest query's results, got %+v", st.Data)
	}
}

func TestDashboard_RefreshOverLiveSourceJoinsPendingRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		switch r.URL.Path {
		case "/api/v1/signals/featured":
			w.Write([]byte(`[{"id":"1","symbol":"AAPL","signalType":"BUY","currentPrice":178.5}]`))
		case "/api/v1/market/news":
			w.Write([]byte(`[{"id":"1","title":"Fed holds","source":"Reuters","timestamp":1}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := collector.NewCollector(collector.NewRESTFetcher(srv.URL, "", "", 2*time.Second), collector.Delays{})
	d := NewDashboard(c, 5)
	defer d.Close()

	time.Sleep(10 * time.Millisecond)
	d.Refresh()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := d.Settle(ctx)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if s.Error != "" {
		t.Errorf("refresh surfaced an error from the replaced load: %q", s.Error)
	}
	if len(s.Data.FeaturedSignals) != 1 || len(s.Data.MarketNews) != 1 {
		t.Errorf("expected refreshed data, got %+v", s.Data)
	}
}
