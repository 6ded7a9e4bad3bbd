package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"SignalDesk/internal/collector"
)

// Data source modes.
const (
	ModeSample = "sample"
	ModeREST   = "rest"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Mode    string `yaml:"mode" env:"DATA_SOURCE_MODE" env-upd:""`
		BaseURL string `yaml:"base_url" env:"SIGNALS_BASE_URL" env-upd:""`
		APIKey  string `yaml:"api_key" env:"SIGNALS_API_KEY" env-upd:""`
		Proxy   string `yaml:"proxy" env:"HTTPS_PROXY" env-upd:""`
		Timeout int    `yaml:"timeout_seconds" env:"SIGNALS_TIMEOUT_SECONDS" env-upd:""`
	} `yaml:"data_source"`
	// Simulated latency per operation, in milliseconds. Sample mode
	// defaults to the sample delays; rest mode defaults to none.
	Delays struct {
		FeaturedSignals int `yaml:"featured_signals" env:"DELAY_FEATURED_SIGNALS_MS" env-upd:""`
		Signals         int `yaml:"signals" env:"DELAY_SIGNALS_MS" env-upd:""`
		SignalDetail    int `yaml:"signal_detail" env:"DELAY_SIGNAL_DETAIL_MS" env-upd:""`
		MarketNews      int `yaml:"market_news" env:"DELAY_MARKET_NEWS_MS" env-upd:""`
		Search          int `yaml:"search" env:"DELAY_SEARCH_MS" env-upd:""`
		Analysis        int `yaml:"analysis" env:"DELAY_ANALYSIS_MS" env-upd:""`
	} `yaml:"delays"`
	Dashboard struct {
		NewsLimit   int    `yaml:"news_limit" env:"DASHBOARD_NEWS_LIMIT" env-upd:""`
		RefreshCron string `yaml:"refresh_cron" env:"CRON_REFRESH" env-upd:""`
	} `yaml:"dashboard"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN" env-upd:""`
		Timeout  int    `yaml:"poll_timeout_seconds" env:"TELEGRAM_POLL_TIMEOUT_SECONDS" env-upd:""`
	} `yaml:"telegram"`
	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-upd:""`
		Format string `yaml:"format" env:"LOG_FORMAT" env-upd:""`
		File   string `yaml:"file" env:"LOG_FILE" env-upd:""`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cleanenv.UpdateEnv(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Mode == "" {
		c.DataSource.Mode = ModeSample
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30
	}

	// Live calls wait on the network, not on simulated latency.
	if c.DataSource.Mode == ModeSample {
		d := collector.SampleDelays()
		setMillis(&c.Delays.FeaturedSignals, d.FeaturedSignals)
		setMillis(&c.Delays.Signals, d.Signals)
		setMillis(&c.Delays.SignalDetail, d.SignalDetail)
		setMillis(&c.Delays.MarketNews, d.MarketNews)
		setMillis(&c.Delays.Search, d.Search)
		setMillis(&c.Delays.Analysis, d.Analysis)
	}

	if c.Dashboard.NewsLimit == 0 {
		c.Dashboard.NewsLimit = 10
	}
	if c.Dashboard.RefreshCron == "" {
		c.Dashboard.RefreshCron = "0 */5 * * * *"
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Zero means unset; a negative value disables the delay.
func setMillis(v *int, def time.Duration) {
	if *v == 0 {
		*v = int(def / time.Millisecond)
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DataSource.Mode {
	case ModeSample:
	case ModeREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required in rest mode")
		}
	default:
		return fmt.Errorf("data_source.mode must be %q or %q, got %q", ModeSample, ModeREST, c.DataSource.Mode)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout_seconds must not be negative")
	}
	if c.Dashboard.NewsLimit < 0 {
		return fmt.Errorf("dashboard.news_limit must not be negative")
	}
	if _, err := cron.NewParser(cronSpec).Parse(c.Dashboard.RefreshCron); err != nil {
		return fmt.Errorf("dashboard.refresh_cron: %w", err)
	}
	switch c.Log.Format {
	case "json", "pretty":
	default:
		return fmt.Errorf("log.format must be json or pretty, got %q", c.Log.Format)
	}
	return nil
}

// Same fields as cron.WithSeconds.
const cronSpec = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// CollectorDelays converts the configured delays.
func (c *Config) CollectorDelays() collector.Delays {
	return collector.Delays{
		FeaturedSignals: millis(c.Delays.FeaturedSignals),
		Signals:         millis(c.Delays.Signals),
		SignalDetail:    millis(c.Delays.SignalDetail),
		MarketNews:      millis(c.Delays.MarketNews),
		Search:          millis(c.Delays.Search),
		Analysis:        millis(c.Delays.Analysis),
	}
}

func millis(v int) time.Duration {
	if v < 0 {
		return 0
	}
	return time.Duration(v) * time.Millisecond
}

// SourceTimeout is the REST client timeout.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.DataSource.Timeout) * time.Second
}

// PollTimeout is the Telegram long-poll timeout.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Telegram.Timeout) * time.Second
}
