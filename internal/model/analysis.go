package model

import "time"

// Analysis holds the combined technical/fundamental/sentiment view of a symbol.
// All scores are in 0.0 ~ 1.0.
type Analysis struct {
	Symbol           string
	OverallScore     float64
	TechnicalScore   float64
	FundamentalScore float64
	SentimentScore   float64
	Recommendation   SignalType
	KeyMetrics       map[string]float64
	Text             string
	Timestamp        time.Time
}
