package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/screen"
	"SignalDesk/internal/store"
)

const retryHint = "Send /refresh to try again."

// FormatPercent renders a signed percent change with two decimals, e.g. "+3.80%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Badge is the emoji-prefixed signal label.
func Badge(t model.SignalType) string {
	switch t {
	case model.SignalStrongBuy, model.SignalBuy:
		return "🟢 " + t.Label()
	case model.SignalStrongSell, model.SignalSell:
		return "🔴 " + t.Label()
	default:
		return "⚪ " + t.Label()
	}
}

// FormatSignal renders one signal as a single line.
func FormatSignal(s model.Signal) string {
	return fmt.Sprintf("<b>%s</b> %s | %s → %s (%s) | %.0f%% conf",
		html.EscapeString(s.Symbol), Badge(s.Type),
		s.CurrentPrice.StringFixed(2), s.TargetPrice.StringFixed(2),
		FormatPercent(s.PercentChange), s.Confidence*100)
}

// FormatSignalList renders a list of signals, one per line.
func FormatSignalList(title string, signals []model.Signal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>\n\n", html.EscapeString(title)))
	if len(signals) == 0 {
		b.WriteString("No signals.\n")
		return b.String()
	}
	for _, s := range signals {
		b.WriteString(FormatSignal(s))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatNews renders news items, newest first as provided.
func FormatNews(items []model.NewsItem, now time.Time) string {
	var b strings.Builder
	b.WriteString("📰 <b>Market News</b>\n\n")
	if len(items) == 0 {
		b.WriteString("No news.\n")
		return b.String()
	}
	for _, n := range items {
		b.WriteString(fmt.Sprintf("• <b>%s</b>\n  %s · %s\n",
			html.EscapeString(n.Title), html.EscapeString(n.Source), age(now.Sub(n.Timestamp))))
		if len(n.RelatedSymbols) > 0 {
			b.WriteString("  " + strings.Join(n.RelatedSymbols, " ") + "\n")
		}
	}
	return b.String()
}

func age(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// status renders the loading and error lines shared by every screen.
func status(loading bool, errMsg string) string {
	var b strings.Builder
	if loading {
		b.WriteString("⏳ Loading...\n")
	}
	if errMsg != "" {
		b.WriteString(fmt.Sprintf("❌ %s\n%s\n", html.EscapeString(errMsg), retryHint))
	}
	return b.String()
}

// FormatDashboard renders a dashboard snapshot.
func FormatDashboard(s store.State[screen.DashboardData], now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>SignalDesk</b> | %s\n", now.Format("2006-01-02 15:04")))
	b.WriteString(status(s.IsLoading, s.Error))
	b.WriteString("\n")
	b.WriteString(FormatSignalList("Featured Signals", s.Data.FeaturedSignals))
	b.WriteString("\n")
	b.WriteString(FormatNews(s.Data.MarketNews, now))
	return b.String()
}

// FormatDetail renders a signal detail snapshot.
func FormatDetail(s store.State[screen.DetailData]) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b>\n", html.EscapeString(s.Data.Symbol)))
	b.WriteString(status(s.IsLoading, s.Error))

	if d := s.Data.Detail; d != nil {
		b.WriteString(fmt.Sprintf("%s\n%s\n\n", html.EscapeString(d.Signal.Name), FormatSignal(d.Signal)))
		ti := d.Indicators
		b.WriteString("<b>Indicators</b>\n")
		b.WriteString(fmt.Sprintf("RSI: %.1f | MACD: %s\n", ti.RSI, html.EscapeString(ti.MACD)))
		b.WriteString(fmt.Sprintf("MA50: %s | MA200: %s\n", ti.MA50.StringFixed(2), ti.MA200.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Bollinger: %s - %s\n", ti.BollingerLower.StringFixed(2), ti.BollingerUpper.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Support: %s | Resistance: %s\n", d.SupportLevel.StringFixed(2), d.ResistanceLevel.StringFixed(2)))
		b.WriteString(fmt.Sprintf("Risk: %s\n", d.Risk))
		if d.TrendDescription != "" {
			b.WriteString(html.EscapeString(d.TrendDescription) + "\n")
		}
		if d.VolumeAnalysis != "" {
			b.WriteString(html.EscapeString(d.VolumeAnalysis) + "\n")
		}
	}

	if a := s.Data.Analysis; a != nil {
		b.WriteString("\n<b>Analysis</b>\n")
		b.WriteString(fmt.Sprintf("Overall: %.2f | Technical: %.2f | Fundamental: %.2f | Sentiment: %.2f\n",
			a.OverallScore, a.TechnicalScore, a.FundamentalScore, a.SentimentScore))
		b.WriteString(fmt.Sprintf("Recommendation: %s\n", Badge(a.Recommendation)))
		keys := make([]string, 0, len(a.KeyMetrics))
		for k := range a.KeyMetrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %s: %g\n", html.EscapeString(k), a.KeyMetrics[k]))
		}
		if a.Text != "" {
			b.WriteString(html.EscapeString(a.Text) + "\n")
		}
	}
	return b.String()
}

// FormatSearch renders a search snapshot.
func FormatSearch(s store.State[screen.SearchData]) string {
	var b strings.Builder
	if strings.TrimSpace(s.Data.Query) == "" {
		b.WriteString("🔍 Usage: /search &lt;symbol or name&gt;\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("🔍 <b>Search:</b> %s\n", html.EscapeString(s.Data.Query)))
	b.WriteString(status(s.IsLoading, s.Error))
	if len(s.Data.Results) == 0 {
		b.WriteString("No matches.\n")
		return b.String()
	}
	for _, r := range s.Data.Results {
		b.WriteString(FormatSignal(r))
		b.WriteString("\n")
	}
	return b.String()
}
