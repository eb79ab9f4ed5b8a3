package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Telegram:    TelegramConfig{BotToken: "123:abc", PollTimeout: 30},
		Polygonscan: PolygonscanConfig{APIKey: "key", RequestTimeout: 15, MaxRetries: 2},
		Polymarket:  PolymarketConfig{RequestTimeout: 10},
		App:         AppConfig{DataDir: "data", PollInterval: 20},
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validateConfig(validTestConfig()))
}

func TestValidateConfigMissingAPIKey(t *testing.T) {
	cfg := validTestConfig()
	cfg.Polygonscan.APIKey = ""
	err := validateConfig(cfg)
	assert.ErrorContains(t, err, "polygonscan.api_key")
}

func TestValidateConfigMissingBotToken(t *testing.T) {
	cfg := validTestConfig()
	cfg.Telegram.BotToken = ""
	err := validateConfig(cfg)
	assert.ErrorContains(t, err, "telegram.bot_token")
}

func TestValidateConfigNonPositivePollInterval(t *testing.T) {
	for _, interval := range []int{0, -5} {
		cfg := validTestConfig()
		cfg.App.PollInterval = interval
		err := validateConfig(cfg)
		assert.ErrorContains(t, err, "poll_interval")
	}
}

func TestPollIntervalDuration(t *testing.T) {
	app := AppConfig{PollInterval: 20}
	assert.Equal(t, 20*time.Second, app.PollIntervalDuration())
}
