package main

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/config"
	"SignalDesk/internal/logger"
	"SignalDesk/internal/notifier"
	"SignalDesk/internal/scheduler"
	"SignalDesk/internal/screen"
	"SignalDesk/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	logCloser, err := logger.Init(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Service: "signaldesk",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	defer logCloser.Close()
	log.Info().Msg("SignalDesk starting...")

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Mode == config.ModeREST {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.DataSource.Proxy, cfg.SourceTimeout())
	} else {
		fetcher = collector.NewSampleFetcher()
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source selected")

	col := collector.NewCollector(fetcher, cfg.CollectorDelays())

	// Screens
	dashboard := screen.NewDashboard(col, cfg.Dashboard.NewsLimit)
	defer dashboard.Close()
	detail := screen.NewSignalDetail(col)
	defer detail.Close()
	search := screen.NewSearch(col)
	defer search.Close()

	unsubscribe := dashboard.Subscribe(logDashboard)
	defer unsubscribe()

	// Periodic refresh
	sched := scheduler.NewScheduler()
	if err := sched.RegisterRefresh("dashboard", cfg.Dashboard.RefreshCron, dashboard); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Telegram front-end is optional
	if cfg.Telegram.BotToken != "" {
		bot, err := notifier.NewTelegramBot(cfg.Telegram.BotToken, cfg.PollTimeout(),
			notifier.NewCommands(col, dashboard, detail, search))
		if err != nil {
			log.Fatal().Err(err).Msg("init telegram bot")
		}
		go bot.Start()
		defer bot.Stop()
	} else {
		log.Info().Msg("telegram.bot_token not set, running without a front-end")
	}

	log.Info().Msg("SignalDesk is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
}

// logDashboard reports every dashboard transition.
func logDashboard(s store.State[screen.DashboardData]) {
	ev := log.Info()
	if s.Error != "" {
		ev = log.Warn().Str("error", s.Error)
	}
	ev.Uint64("version", s.Version).
		Bool("loading", s.IsLoading).
		Int("signals", len(s.Data.FeaturedSignals)).
		Int("news", len(s.Data.MarketNews)).
		Msg("dashboard updated")
}
