package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SignalDesk/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrUnexpectedStatus is returned when the backend answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// RESTFetcher implements Fetcher against the signals REST API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// Concurrent identical GETs share one round trip.
	sf singleflight.Group
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// apiSignal is the expected JSON shape of a signal. Timestamps are epoch millis.
type apiSignal struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	SignalType    string          `json:"signalType"`
	Confidence    float64         `json:"confidence"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	TargetPrice   decimal.Decimal `json:"targetPrice"`
	PercentChange float64         `json:"percentChange"`
	Timestamp     int64           `json:"timestamp"`
	Source        string          `json:"source"`
	IsRealTime    bool            `json:"isRealTime"`
}

type apiIndicators struct {
	RSI              float64         `json:"rsi"`
	MACD             string          `json:"macd"`
	MovingAverage50  decimal.Decimal `json:"movingAverage50"`
	MovingAverage200 decimal.Decimal `json:"movingAverage200"`
	BollingerUpper   decimal.Decimal `json:"bollingerUpper"`
	BollingerLower   decimal.Decimal `json:"bollingerLower"`
}

type apiSignalDetail struct {
	Signal              apiSignal       `json:"signal"`
	TechnicalIndicators apiIndicators   `json:"technicalIndicators"`
	SupportLevel        decimal.Decimal `json:"supportLevel"`
	ResistanceLevel     decimal.Decimal `json:"resistanceLevel"`
	VolumeAnalysis      string          `json:"volumeAnalysis"`
	TrendDescription    string          `json:"trendDescription"`
	RiskLevel           string          `json:"riskLevel"`
}

type apiNewsItem struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Source         string   `json:"source"`
	URL            string   `json:"url"`
	ImageURL       *string  `json:"imageUrl"`
	Timestamp      int64    `json:"timestamp"`
	RelatedSymbols []string `json:"relatedSymbols"`
}

type apiAnalysis struct {
	Symbol           string             `json:"symbol"`
	OverallScore     float64            `json:"overallScore"`
	TechnicalScore   float64            `json:"technicalScore"`
	FundamentalScore float64            `json:"fundamentalScore"`
	SentimentScore   float64            `json:"sentimentScore"`
	Recommendation   string             `json:"recommendation"`
	KeyMetrics       map[string]float64 `json:"keyMetrics"`
	AnalysisText     string             `json:"analysisText"`
	Timestamp        int64              `json:"timestamp"`
}

func (f *RESTFetcher) FeaturedSignals(ctx context.Context) ([]model.Signal, error) {
	var raw []apiSignal
	if err := f.getJSON(ctx, "/api/v1/signals/featured", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch featured signals: %w", err)
	}
	return toSignals(raw), nil
}

func (f *RESTFetcher) Signals(ctx context.Context, page Page) ([]model.Signal, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(page.Limit))
	q.Set("offset", strconv.Itoa(page.Offset))
	if page.Tier != "" {
		q.Set("tier", page.Tier)
	}
	var raw []apiSignal
	if err := f.getJSON(ctx, "/api/v1/signals", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch signals: %w", err)
	}
	return toSignals(raw), nil
}

func (f *RESTFetcher) SignalDetail(ctx context.Context, symbol string) (*model.SignalDetail, error) {
	var raw apiSignalDetail
	if err := f.getJSON(ctx, "/api/v1/signals/"+url.PathEscape(symbol), nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch signal detail %s: %w", symbol, err)
	}
	ti := raw.TechnicalIndicators
	return &model.SignalDetail{
		Signal: raw.Signal.toModel(),
		Indicators: model.TechnicalIndicators{
			RSI:            ti.RSI,
			MACD:           ti.MACD,
			MA50:           ti.MovingAverage50,
			MA200:          ti.MovingAverage200,
			BollingerUpper: ti.BollingerUpper,
			BollingerLower: ti.BollingerLower,
		},
		SupportLevel:     raw.SupportLevel,
		ResistanceLevel:  raw.ResistanceLevel,
		VolumeAnalysis:   raw.VolumeAnalysis,
		TrendDescription: raw.TrendDescription,
		Risk:             model.RiskLevel(raw.RiskLevel),
	}, nil
}

func (f *RESTFetcher) MarketNews(ctx context.Context, limit int) ([]model.NewsItem, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var raw []apiNewsItem
	if err := f.getJSON(ctx, "/api/v1/market/news", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	items := make([]model.NewsItem, len(raw))
	for i, n := range raw {
		items[i] = model.NewsItem{
			ID:             n.ID,
			Title:          n.Title,
			Summary:        n.Summary,
			Source:         n.Source,
			URL:            n.URL,
			ImageURL:       n.ImageURL,
			Timestamp:      time.UnixMilli(n.Timestamp),
			RelatedSymbols: n.RelatedSymbols,
		}
	}
	return items, nil
}

func (f *RESTFetcher) SearchSymbols(ctx context.Context, query string) ([]model.Signal, error) {
	q := url.Values{}
	q.Set("q", query)
	var raw []apiSignal
	if err := f.getJSON(ctx, "/api/v1/search", q, &raw); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return toSignals(raw), nil
}

func (f *RESTFetcher) Analysis(ctx context.Context, symbol string) (*model.Analysis, error) {
	var raw apiAnalysis
	if err := f.getJSON(ctx, "/api/v1/analysis/"+url.PathEscape(symbol), nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch analysis %s: %w", symbol, err)
	}
	return &model.Analysis{
		Symbol:           raw.Symbol,
		OverallScore:     raw.OverallScore,
		TechnicalScore:   raw.TechnicalScore,
		FundamentalScore: raw.FundamentalScore,
		SentimentScore:   raw.SentimentScore,
		Recommendation:   model.SignalType(raw.Recommendation),
		KeyMetrics:       raw.KeyMetrics,
		Text:             raw.AnalysisText,
		Timestamp:        time.UnixMilli(raw.Timestamp),
	}, nil
}

func (f *RESTFetcher) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	endpoint := f.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	// The shared request outlives any one caller; the client timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := f.sf.DoChan(endpoint, func() (interface{}, error) {
		return f.get(shared, endpoint)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if err := json.Unmarshal(res.Val.([]byte), dst); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *RESTFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %d, body: %s", ErrUnexpectedStatus, resp.StatusCode, string(body))
	}
	return body, nil
}

func (s apiSignal) toModel() model.Signal {
	return model.Signal{
		ID:            s.ID,
		Symbol:        s.Symbol,
		Name:          s.Name,
		Type:          model.SignalType(s.SignalType),
		Confidence:    s.Confidence,
		CurrentPrice:  s.CurrentPrice,
		TargetPrice:   s.TargetPrice,
		PercentChange: s.PercentChange,
		Timestamp:     time.UnixMilli(s.Timestamp),
		Source:        s.Source,
		RealTime:      s.IsRealTime,
	}
}

func toSignals(raw []apiSignal) []model.Signal {
	signals := make([]model.Signal, len(raw))
	for i, s := range raw {
		signals[i] = s.toModel()
	}
	return signals
}
