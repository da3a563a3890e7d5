package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

// TimeframeBars is one timeframe the refresher downloads.
type TimeframeBars struct {
	Timeframe string `yaml:"timeframe"`
	Bars      int    `yaml:"bars"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string   `yaml:"provider"` // broker, yahoo or mock
		BaseURL  string   `yaml:"base_url"`
		APIKey   string   `yaml:"api_key"`
		Symbols  []string `yaml:"symbols"`
	} `yaml:"data_source"`
	Storage struct {
		DataDir    string        `yaml:"data_dir"`
		AssetsFile string        `yaml:"assets_file"`
		SQLitePath string        `yaml:"sqlite_path"` // empty stores bars as CSV files under data_dir
		Retention  time.Duration `yaml:"retention"`
	} `yaml:"storage"`
	Refresh struct {
		Cron       string          `yaml:"cron"`
		Exclude    []string        `yaml:"exclude"`
		Timeframes []TimeframeBars `yaml:"timeframes"`
	} `yaml:"refresh"`
	Ranking struct {
		Cron      string `yaml:"cron"`
		Source    string `yaml:"source"` // store reads refreshed bars, live fetches on every pass
		LiveBars  int    `yaml:"live_bars"`
		Timeframe string `yaml:"timeframe"`
		MinBars   int    `yaml:"min_bars"`
		Workers   int    `yaml:"workers"`
	} `yaml:"ranking"`
	Strategy strategy.Config `yaml:"strategy"`
	Metrics  struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config at path, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] .env not loaded: %v", err)
	}

	cfg := &Config{Strategy: strategy.DefaultConfig()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	envString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	envString("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	envString("DATA_PROVIDER", &cfg.DataSource.Provider)
	envString("BROKER_BASE_URL", &cfg.DataSource.BaseURL)
	envString("BROKER_API_KEY", &cfg.DataSource.APIKey)
	envString("HTTPS_PROXY", &cfg.Proxy)
	envString("SQLITE_PATH", &cfg.Storage.SQLitePath)
	envString("DATA_DIR", &cfg.Storage.DataDir)
	envString("ASSETS_FILE", &cfg.Storage.AssetsFile)
	envString("CRON_REFRESH", &cfg.Refresh.Cron)
	envString("CRON_RANK", &cfg.Ranking.Cron)
	envString("METRICS_ADDR", &cfg.Metrics.Addr)
	envString("RANK_TIMEFRAME", &cfg.Ranking.Timeframe)
	if v := os.Getenv("RANK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Ranking.Workers = n
		} else {
			log.Printf("[WARN] ignoring RANK_WORKERS=%q: %v", v, err)
		}
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "broker"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "historical_data"
	}
	if cfg.Storage.AssetsFile == "" {
		cfg.Storage.AssetsFile = "available_assets.txt"
	}
	if cfg.Storage.Retention == 0 {
		cfg.Storage.Retention = 30 * 24 * time.Hour
	}
	if cfg.Refresh.Cron == "" {
		cfg.Refresh.Cron = "0 */15 * * * *"
	}
	if cfg.Refresh.Exclude == nil {
		cfg.Refresh.Exclude = []string{"OTC"}
	}
	if len(cfg.Refresh.Timeframes) == 0 {
		cfg.Refresh.Timeframes = []TimeframeBars{
			{Timeframe: string(model.TimeframeM1), Bars: 43200},
			{Timeframe: string(model.TimeframeH1), Bars: 720},
		}
	}
	if cfg.Ranking.Cron == "" {
		cfg.Ranking.Cron = "30 * * * * *"
	}
	if cfg.Ranking.Source == "" {
		cfg.Ranking.Source = "store"
	}
	if cfg.Ranking.LiveBars == 0 {
		cfg.Ranking.LiveBars = 300
	}
	if cfg.Ranking.Timeframe == "" {
		cfg.Ranking.Timeframe = string(model.TimeframeM1)
	}
	if cfg.Ranking.Workers == 0 {
		cfg.Ranking.Workers = 4
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	return cfg, nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "broker":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("%w: data_source.base_url is required for the broker provider", model.ErrInvalidConfig)
		}
	case "yahoo":
		if len(c.DataSource.Symbols) == 0 {
			return fmt.Errorf("%w: data_source.symbols is required for the yahoo provider", model.ErrInvalidConfig)
		}
	case "mock":
	default:
		return fmt.Errorf("%w: unknown data_source.provider %q", model.ErrInvalidConfig, c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("%w: telegram.bot_token and telegram.chat_id must be set together", model.ErrInvalidConfig)
	}
	if model.Timeframe(c.Ranking.Timeframe).Duration() == 0 {
		return fmt.Errorf("%w: unknown ranking.timeframe %q", model.ErrInvalidConfig, c.Ranking.Timeframe)
	}
	if c.Ranking.Source != "store" && c.Ranking.Source != "live" {
		return fmt.Errorf("%w: ranking.source must be store or live, got %q", model.ErrInvalidConfig, c.Ranking.Source)
	}
	if c.Ranking.Source == "live" && c.Ranking.LiveBars < c.Ranking.MinBars {
		return fmt.Errorf("%w: ranking.live_bars %d is below ranking.min_bars %d", model.ErrInvalidConfig, c.Ranking.LiveBars, c.Ranking.MinBars)
	}
	if c.Ranking.MinBars < 0 || c.Ranking.Workers < 1 {
		return fmt.Errorf("%w: ranking.min_bars must be >= 0 and ranking.workers >= 1", model.ErrInvalidConfig)
	}
	for _, tf := range c.Refresh.Timeframes {
		if model.Timeframe(tf.Timeframe).Duration() == 0 || tf.Bars <= 0 {
			return fmt.Errorf("%w: invalid refresh timeframe %s x %d", model.ErrInvalidConfig, tf.Timeframe, tf.Bars)
		}
	}
	if c.Storage.Retention < 0 {
		return fmt.Errorf("%w: storage.retention must not be negative", model.ErrInvalidConfig)
	}
	return c.Strategy.Validate()
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ExcludeList renders the refresh exclusions for logging.
func (c *Config) ExcludeList() string {
	return strings.Join(c.Refresh.Exclude, ",")
}
