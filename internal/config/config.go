// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Relay     RelayConfig     `yaml:"relay" mapstructure:"relay"`
	Backfill  BackfillConfig  `yaml:"backfill" mapstructure:"backfill"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the warehouse database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for industry classification.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	HaikuModel string `yaml:"haiku_model" mapstructure:"haiku_model"`
	MaxTokens  int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RelayConfig configures outbound webhook delivery.
type RelayConfig struct {
	WebhookURL  string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BackfillConfig configures reconciler batch sizing.
type BackfillConfig struct {
	BatchSize  int `yaml:"batch_size" mapstructure:"batch_size"`
	MaxBatches int `yaml:"max_batches" mapstructure:"max_batches"`
}

// ServerConfig configures the ingest HTTP server.
type ServerConfig struct {
	Port   int    `yaml:"port" mapstructure:"port"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "console"
}

// Load reads configuration from config.yaml (optional) and WAREHOUSE_*
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WAREHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("relay.rate_per_sec", 2.0)
	v.SetDefault("relay.burst", 1)
	v.SetDefault("relay.timeout_secs", 15)
	v.SetDefault("backfill.batch_size", 200)
	v.SetDefault("backfill.max_batches", 50)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger builds the global zap logger from LogConfig.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
