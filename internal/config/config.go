package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Screen struct {
		Benchmark    string        `yaml:"benchmark"`
		LookbackDays int           `yaml:"lookback_days"`
		Workers      int           `yaml:"workers"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		OutputPath   string        `yaml:"output_path"`
		SnapshotPath string        `yaml:"snapshot_path"`
		Universe     struct {
			Source  string   `yaml:"source"` // sp500 | csv | static
			File    string   `yaml:"file"`
			URL     string   `yaml:"url"`
			Tickers []string `yaml:"tickers"`
		} `yaml:"universe"`
	} `yaml:"screen"`
	DataSource struct {
		Provider  string `yaml:"provider"` // yahoo | alpaca | rest
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Feed      string `yaml:"feed"`
		RateLimit int    `yaml:"rate_limit"` // requests per second, 0 = unlimited
	} `yaml:"data_source"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Prefix    string        `yaml:"prefix"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Logging struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and the YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// Environment variable overrides
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("SCREEN_BENCHMARK", &cfg.Screen.Benchmark)
	setString("SCREEN_OUTPUT_PATH", &cfg.Screen.OutputPath)
	setString("UNIVERSE_SOURCE", &cfg.Screen.Universe.Source)
	setString("UNIVERSE_FILE", &cfg.Screen.Universe.File)
	if v := os.Getenv("UNIVERSE_TICKERS"); v != "" {
		cfg.Screen.Universe.Tickers = strings.Split(v, ",")
	}
	setInt("SCREEN_WORKERS", &cfg.Screen.Workers)
	setInt("SCREEN_LOOKBACK_DAYS", &cfg.Screen.LookbackDays)
	if v := os.Getenv("SCREEN_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Screen.FetchTimeout = d
		}
	}

	setString("DATA_PROVIDER", &cfg.DataSource.Provider)
	setString("DATA_BASE_URL", &cfg.DataSource.BaseURL)
	setString("APCA_API_KEY_ID", &cfg.DataSource.APIKey)
	setString("APCA_API_SECRET_KEY", &cfg.DataSource.APISecret)
	setString("DATA_API_KEY", &cfg.DataSource.APIKey)
	setInt("DATA_RATE_LIMIT", &cfg.DataSource.RateLimit)

	setString("REDIS_ADDR", &cfg.Cache.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.Cache.Password)

	setString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString("KAFKA_TOPIC", &cfg.Kafka.Topic)

	setString("SQLITE_PATH", &cfg.Database.SQLitePath)
	setString("CRON_DAILY", &cfg.Schedule.DailyCron)
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = v == "true"
	}
	setString("HTTP_ADDR", &cfg.HTTP.Addr)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("HTTPS_PROXY", &cfg.Proxy)
}

func applyDefaults(cfg *Config) {
	if cfg.Screen.Benchmark == "" {
		cfg.Screen.Benchmark = "^GSPC"
	}
	if cfg.Screen.LookbackDays == 0 {
		cfg.Screen.LookbackDays = 365
	}
	if cfg.Screen.Workers == 0 {
		cfg.Screen.Workers = 4
	}
	if cfg.Screen.FetchTimeout == 0 {
		cfg.Screen.FetchTimeout = 30 * time.Second
	}
	if cfg.Screen.OutputPath == "" {
		cfg.Screen.OutputPath = "screened_stocks.csv"
	}
	if cfg.Screen.SnapshotPath == "" {
		cfg.Screen.SnapshotPath = "data/latest_screen.json"
	}
	if cfg.Screen.Universe.Source == "" {
		cfg.Screen.Universe.Source = "sp500"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.Feed == "" {
		cfg.DataSource.Feed = "iex"
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "trend:"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 12 * time.Hour
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "screen-results"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/trend_sentinel.db"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 22 * * 1-5"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks that the configuration is consistent.
func (c *Config) Validate() error {
	if c.Screen.Benchmark == "" {
		return fmt.Errorf("screen.benchmark is required")
	}
	if c.Screen.LookbackDays <= 0 {
		return fmt.Errorf("screen.lookback_days must be positive")
	}
	if c.Screen.Workers <= 0 {
		return fmt.Errorf("screen.workers must be positive")
	}
	if c.Screen.FetchTimeout <= 0 {
		return fmt.Errorf("screen.fetch_timeout must be positive")
	}
	switch c.Screen.Universe.Source {
	case "sp500":
	case "csv":
		if c.Screen.Universe.File == "" {
			return fmt.Errorf("screen.universe.file is required for csv source")
		}
	case "static":
		if len(c.Screen.Universe.Tickers) == 0 {
			return fmt.Errorf("screen.universe.tickers is required for static source")
		}
	default:
		return fmt.Errorf("unknown universe source %q", c.Screen.Universe.Source)
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "alpaca":
		if c.DataSource.APIKey == "" || c.DataSource.APISecret == "" {
			return fmt.Errorf("data_source.api_key and api_secret are required for alpaca")
		}
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for rest")
		}
	default:
		return fmt.Errorf("unknown data provider %q", c.DataSource.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
