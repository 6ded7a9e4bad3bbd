package notifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/operation"
	"SignalDesk/internal/screen"

	"github.com/rs/zerolog/log"
)

const helpText = "Available commands:\n" +
	"/start - dashboard\n" +
	"/refresh - reload the dashboard\n" +
	"/signals - all signals\n" +
	"/signal SYMBOL - signal detail and analysis\n" +
	"/search QUERY - find symbols\n" +
	"/news - market news"

// Commands answers chat commands from the screens.
type Commands struct {
	Dashboard *screen.Dashboard
	Detail    *screen.SignalDetail
	Search    *screen.Search
	Collector *collector.Collector
	Now       func() time.Time
}

// NewCommands creates the command set over the given screens.
func NewCommands(c *collector.Collector, d *screen.Dashboard, detail *screen.SignalDetail, search *screen.Search) *Commands {
	return &Commands{Dashboard: d, Detail: detail, Search: search, Collector: c, Now: time.Now}
}

// Handle processes a command and returns the reply. Replies are HTML.
// If ctx ends before the data settles, the snapshot at that point is rendered.
func (c *Commands) Handle(ctx context.Context, command string, args []string) string {
	log.Info().Str("command", command).Strs("args", args).Msg("command received")

	switch strings.TrimPrefix(command, "/") {
	case "start", "dashboard":
		return FormatDashboard(settled(ctx, c.Dashboard.Settle, c.Dashboard.Current), c.now())
	case "refresh":
		c.Dashboard.Refresh()
		return FormatDashboard(settled(ctx, c.Dashboard.Settle, c.Dashboard.Current), c.now())
	case "news":
		s := settled(ctx, c.Dashboard.Settle, c.Dashboard.Current)
		return status(s.IsLoading, s.Error) + FormatNews(s.Data.MarketNews, c.now())
	case "signals":
		env, ok := operation.Terminal(ctx, c.Collector.Signals(collector.DefaultPage()))
		if !ok {
			return status(false, "Request timed out")
		}
		if env.IsError() {
			return status(false, env.Message())
		}
		signals, _ := env.Value()
		return FormatSignalList("Signals", signals)
	case "signal":
		if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
			return "Usage: /signal SYMBOL"
		}
		c.Detail.Load(args[0])
		return FormatDetail(settled(ctx, c.Detail.Settle, c.Detail.Current))
	case "search":
		c.Search.Query(strings.Join(args, " "))
		return FormatSearch(settled(ctx, c.Search.Settle, c.Search.Current))
	default:
		return helpText
	}
}

func (c *Commands) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func settled[S any](ctx context.Context, settle func(context.Context) (S, error), current func() S) S {
	s, err := settle(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("reply sent before data settled")
		}
		return current()
	}
	return s
}
