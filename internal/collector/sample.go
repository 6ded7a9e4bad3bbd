package collector

import (
	"context"
	"strconv"
	"strings"
	"time"

	"SignalDesk/internal/model"

	"github.com/shopspring/decimal"
)

// SampleFetcher returns a fixed, deterministic data table for development
// and for running without a backend.
type SampleFetcher struct {
	// Now stamps the records; defaults to time.Now.
	Now func() time.Time
}

// NewSampleFetcher creates a SampleFetcher using the wall clock.
func NewSampleFetcher() *SampleFetcher {
	return &SampleFetcher{Now: time.Now}
}

func (f *SampleFetcher) Name() string { return "sample" }

func (f *SampleFetcher) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

type sampleSignal struct {
	symbol, name string
	kind         model.SignalType
	confidence   float64
	current      string
	target       string
	change       float64
	source       string
}

var sampleSignals = []sampleSignal{
	{"AAPL", "Apple Inc.", model.SignalBuy, 0.87, "178.50", "185.20", 3.8, "Technical"},
	{"MSFT", "Microsoft Corporation", model.SignalStrongBuy, 0.92, "378.91", "400.00", 5.2, "Fundamental"},
	{"GOOGL", "Alphabet Inc.", model.SignalBuy, 0.78, "141.80", "150.00", 2.1, "Technical"},
	{"TSLA", "Tesla Inc.", model.SignalSell, 0.72, "248.50", "235.00", -4.3, "Technical"},
	{"NVDA", "NVIDIA Corporation", model.SignalStrongBuy, 0.95, "495.22", "550.00", 8.5, "AI Trend"},
	{"AMZN", "Amazon.com Inc.", model.SignalBuy, 0.81, "153.42", "165.00", 2.8, "Technical"},
}

type sampleNews struct {
	title, summary, source string
	age                    time.Duration
	related                []string
}

// Newest first.
var sampleNewsItems = []sampleNews{
	{
		"Fed Signals Potential Rate Cuts in Q2",
		"Federal Reserve officials indicated they may begin cutting interest rates in the second quarter of 2024.",
		"Reuters", 0, []string{"SPY", "QQQ", "AAPL"},
	},
	{
		"AI Chip Demand Drives NVIDIA to Record Highs",
		"NVIDIA continues to benefit from insatiable demand for AI accelerators across data centers.",
		"Bloomberg", time.Hour, []string{"NVDA", "AMD", "INTC"},
	},
	{
		"Tesla Earnings Beat Expectations",
		"Tesla reports better-than-expected Q4 earnings, driven by strong EV deliveries and energy storage growth.",
		"CNBC", 2 * time.Hour, []string{"TSLA", "RIVN", "NIO"},
	},
	{
		"Apple Vision Pro Pre-orders Sell Out",
		"Apple's Vision Pro pre-orders sold out within hours, signaling strong demand for the new spatial computing device.",
		"The Verge", 3 * time.Hour, []string{"AAPL", "MSFT", "GOOGL"},
	},
}

const sampleAnalysisText = "Strong technical setup with bullish momentum. RSI at 65.4 indicates room for continued growth. " +
	"MACD shows bullish crossover. Support level established at previous resistance."

func (f *SampleFetcher) FeaturedSignals(_ context.Context) ([]model.Signal, error) {
	return f.signals(), nil
}

func (f *SampleFetcher) Signals(_ context.Context, page Page) ([]model.Signal, error) {
	all := f.signals()
	if page.Offset >= len(all) || page.Offset < 0 {
		return []model.Signal{}, nil
	}
	all = all[page.Offset:]
	if page.Limit > 0 && len(all) > page.Limit {
		all = all[:page.Limit]
	}
	return all, nil
}

// SignalDetail falls back to the first signal when symbol is unknown.
func (f *SampleFetcher) SignalDetail(_ context.Context, symbol string) (*model.SignalDetail, error) {
	base := f.lookup(symbol)
	return &model.SignalDetail{
		Signal: base,
		Indicators: model.TechnicalIndicators{
			RSI:            65.4,
			MACD:           "Bullish",
			MA50:           decimal.RequireFromString("175.20"),
			MA200:          decimal.RequireFromString("168.50"),
			BollingerUpper: decimal.RequireFromString("185.00"),
			BollingerLower: decimal.RequireFromString("170.00"),
		},
		SupportLevel:     base.CurrentPrice.Mul(decimal.RequireFromString("0.95")),
		ResistanceLevel:  base.TargetPrice,
		VolumeAnalysis:   "Volume increased by 25% above average",
		TrendDescription: "Strong uptrend with increasing momentum. RSI indicates moderate buying pressure.",
		Risk:             model.RiskMedium,
	}, nil
}

func (f *SampleFetcher) MarketNews(_ context.Context, limit int) ([]model.NewsItem, error) {
	now := f.now()
	items := make([]model.NewsItem, 0, len(sampleNewsItems))
	for i, n := range sampleNewsItems {
		if limit >= 0 && len(items) >= limit {
			break
		}
		items = append(items, model.NewsItem{
			ID:             strconv.Itoa(i + 1),
			Title:          n.title,
			Summary:        n.summary,
			Source:         n.source,
			URL:            "https://example.com/news/" + strconv.Itoa(i+1),
			Timestamp:      now.Add(-n.age),
			RelatedSymbols: append([]string(nil), n.related...),
		})
	}
	return items, nil
}

// SearchSymbols matches query case-insensitively against symbol and name.
func (f *SampleFetcher) SearchSymbols(_ context.Context, query string) ([]model.Signal, error) {
	q := strings.ToLower(query)
	results := []model.Signal{}
	for _, s := range f.signals() {
		if strings.Contains(strings.ToLower(s.Symbol), q) || strings.Contains(strings.ToLower(s.Name), q) {
			results = append(results, s)
		}
	}
	return results, nil
}

// Analysis derives sample scores from the symbol's signal confidence.
func (f *SampleFetcher) Analysis(_ context.Context, symbol string) (*model.Analysis, error) {
	base := f.lookup(symbol)
	c := base.Confidence
	return &model.Analysis{
		Symbol:           symbol,
		OverallScore:     c,
		TechnicalScore:   c + 0.05,
		FundamentalScore: c - 0.02,
		SentimentScore:   c + 0.03,
		Recommendation:   base.Type,
		KeyMetrics: map[string]float64{
			"PE Ratio":       25.4,
			"EPS":            5.82,
			"Market Cap":     2.8e12,
			"Dividend Yield": 0.52,
		},
		Text:      sampleAnalysisText,
		Timestamp: f.now(),
	}, nil
}

func (f *SampleFetcher) signals() []model.Signal {
	now := f.now()
	out := make([]model.Signal, len(sampleSignals))
	for i, s := range sampleSignals {
		out[i] = model.Signal{
			ID:            strconv.Itoa(i + 1),
			Symbol:        s.symbol,
			Name:          s.name,
			Type:          s.kind,
			Confidence:    s.confidence,
			CurrentPrice:  decimal.RequireFromString(s.current),
			TargetPrice:   decimal.RequireFromString(s.target),
			PercentChange: s.change,
			Timestamp:     now,
			Source:        s.source,
			RealTime:      true,
		}
	}
	return out
}

func (f *SampleFetcher) lookup(symbol string) model.Signal {
	all := f.signals()
	for _, s := range all {
		if s.Symbol == symbol {
			return s
		}
	}
	return all[0]
}
