package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType is the recommendation carried by a signal.
type SignalType string

const (
	SignalBuy        SignalType = "BUY"
	SignalSell       SignalType = "SELL"
	SignalHold       SignalType = "HOLD"
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalStrongSell SignalType = "STRONG_SELL"
)

// Label returns the human readable badge text, e.g. "STRONG BUY".
func (t SignalType) Label() string {
	switch t {
	case SignalStrongBuy:
		return "STRONG BUY"
	case SignalStrongSell:
		return "STRONG SELL"
	default:
		return string(t)
	}
}

// Bullish reports whether the recommendation is a buy of any strength.
func (t SignalType) Bullish() bool {
	return t == SignalBuy || t == SignalStrongBuy
}

// RiskLevel grades the risk of acting on a signal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Signal is a single trading recommendation for a symbol.
type Signal struct {
	ID            string
	Symbol        string
	Name          string
	Type          SignalType
	Confidence    float64 // 0.0 ~ 1.0
	CurrentPrice  decimal.Decimal
	TargetPrice   decimal.Decimal
	PercentChange float64
	Timestamp     time.Time
	Source        string // "Technical", "Fundamental", "AI Trend", ...
	RealTime      bool
}

// TechnicalIndicators is the indicator block shown with a signal detail.
type TechnicalIndicators struct {
	RSI            float64
	MACD           string
	MA50           decimal.Decimal
	MA200          decimal.Decimal
	BollingerUpper decimal.Decimal
	BollingerLower decimal.Decimal
}

// SignalDetail is a signal together with its supporting analysis.
type SignalDetail struct {
	Signal           Signal
	Indicators       TechnicalIndicators
	SupportLevel     decimal.Decimal
	ResistanceLevel  decimal.Decimal
	VolumeAnalysis   string
	TrendDescription string
	Risk             RiskLevel
}
