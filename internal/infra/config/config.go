package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all process configuration, loaded once at startup and
// passed explicitly to each component.
type Config struct {
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Polygonscan PolygonscanConfig `mapstructure:"polygonscan"`
	Polymarket  PolymarketConfig  `mapstructure:"polymarket"`
	App         AppConfig         `mapstructure:"app"`
}

type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	PollTimeout int    `mapstructure:"poll_timeout"` // getUpdates long-poll timeout, seconds
}

// PolygonscanConfig - chain-data API (transactions and balances)
type PolygonscanConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
	MaxRetries     int    `mapstructure:"max_retries"`
}

// PolymarketConfig - market-data API (trade enrichment)
type PolymarketConfig struct {
	DataAPI        string `mapstructure:"data_api"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
}

type AppConfig struct {
	DataDir         string `mapstructure:"data_dir"`
	PollInterval    int    `mapstructure:"poll_interval"` // seconds between alert cycles
	MaxResponseSize int64  `mapstructure:"max_response_size"`
}

// PollIntervalDuration returns the alert cycle interval as a Duration.
func (a AppConfig) PollIntervalDuration() time.Duration {
	return time.Duration(a.PollInterval) * time.Second
}

var flagsOnce sync.Once

// LoadConfig loads configuration in layers:
// 1. defaults
// 2. config.yaml
// 3. .env file
// 4. environment variables
// 5. command-line flags
func LoadConfig() (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.ReadInConfig() // optional, missing file is fine

	v.SetConfigType("env")
	v.SetConfigFile(".env")
	v.ReadInConfig() // optional

	v.AutomaticEnv()

	setupEnvAliases(v)

	flagsOnce.Do(setupFlags)
	v.BindPFlags(pflag.CommandLine)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setupEnvAliases(v *viper.Viper) {
	// TELEGRAM_BOT_TOKEN -> telegram.bot_token etc.
	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.poll_timeout", "TELEGRAM_POLL_TIMEOUT")

	v.BindEnv("polygonscan.api_key", "POLYGONSCAN_API_KEY")
	v.BindEnv("polygonscan.base_url", "POLYGONSCAN_BASE_URL")
	v.BindEnv("polygonscan.request_timeout", "POLYGONSCAN_REQUEST_TIMEOUT")
	v.BindEnv("polygonscan.max_retries", "POLYGONSCAN_MAX_RETRIES")

	v.BindEnv("polymarket.data_api", "POLYMARKET_DATA_API")
	v.BindEnv("polymarket.request_timeout", "POLYMARKET_REQUEST_TIMEOUT")

	v.BindEnv("app.data_dir", "ALERT_APP_DATA_DIR")
	v.BindEnv("app.poll_interval", "POLL_INTERVAL")
	v.BindEnv("app.max_response_size", "ALERT_APP_MAX_RESPONSE_SIZE")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.poll_timeout", 30)

	v.SetDefault("polygonscan.api_key", "")
	v.SetDefault("polygonscan.base_url", "https://api.polygonscan.com/api")
	v.SetDefault("polygonscan.request_timeout", 15)
	v.SetDefault("polygonscan.max_retries", 2)

	v.SetDefault("polymarket.data_api", "https://data-api.polymarket.com")
	v.SetDefault("polymarket.request_timeout", 10)

	v.SetDefault("app.data_dir", "data")
	v.SetDefault("app.poll_interval", 20)
	v.SetDefault("app.max_response_size", 10*1024*1024) // 10MB
}

func setupFlags() {
	pflag.String("telegram.bot_token", "", "Telegram bot token (env: TELEGRAM_BOT_TOKEN)")
	pflag.Int("telegram.poll_timeout", 30, "getUpdates long-poll timeout in seconds (env: TELEGRAM_POLL_TIMEOUT)")

	pflag.String("polygonscan.api_key", "", "Polygonscan API key (env: POLYGONSCAN_API_KEY)")
	pflag.String("polygonscan.base_url", "https://api.polygonscan.com/api", "Polygonscan API base URL (env: POLYGONSCAN_BASE_URL)")
	pflag.Int("polygonscan.request_timeout", 15, "Polygonscan request timeout in seconds (env: POLYGONSCAN_REQUEST_TIMEOUT)")
	pflag.Int("polygonscan.max_retries", 2, "Max retries for failed Polygonscan requests (env: POLYGONSCAN_MAX_RETRIES)")

	pflag.String("polymarket.data_api", "https://data-api.polymarket.com", "Polymarket data API base URL (env: POLYMARKET_DATA_API)")
	pflag.Int("polymarket.request_timeout", 10, "Polymarket request timeout in seconds (env: POLYMARKET_REQUEST_TIMEOUT)")

	pflag.String("app.data_dir", "data", "Directory for subscriptions and watermark state (env: ALERT_APP_DATA_DIR)")
	pflag.Int("app.poll_interval", 20, "Alert poll interval in seconds (env: POLL_INTERVAL)")
	pflag.Int64("app.max_response_size", 10*1024*1024, "Max API response size in bytes (env: ALERT_APP_MAX_RESPONSE_SIZE)")

	pflag.Parse()
}

func validateConfig(cfg *Config) error {
	if cfg.Polygonscan.APIKey == "" {
		return fmt.Errorf("polygonscan.api_key is required (env: POLYGONSCAN_API_KEY)")
	}
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required (env: TELEGRAM_BOT_TOKEN)")
	}
	if cfg.App.PollInterval <= 0 {
		return fmt.Errorf("app.poll_interval must be positive, got %d", cfg.App.PollInterval)
	}
	return nil
}
