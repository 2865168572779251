package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the relay, environment-first with an
// optional .env file for local runs.
type Config struct {
	Port string `mapstructure:"PORT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	ProcessStream string `mapstructure:"PROCESS_STREAM"`
	DeliverStream string `mapstructure:"DELIVER_STREAM"`
	ConsumerGroup string `mapstructure:"CONSUMER_GROUP"`

	VisibilityTimeout time.Duration `mapstructure:"VISIBILITY_TIMEOUT"`
	MaxReceives       int64         `mapstructure:"MAX_RECEIVES"`
	MaxDelay          time.Duration `mapstructure:"MAX_DELAY"`

	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`

	// MetricsPort is where the worker exposes its own /metrics endpoint
	MetricsPort string `mapstructure:"METRICS_PORT"`

	// PlansFile optionally overrides the built-in plan limits table
	PlansFile string `mapstructure:"PLANS_FILE"`
}

// GetConfig loads configuration from the environment and, when present,
// a .env file in the working directory
func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PROCESS_STREAM", "relay:process")
	viper.SetDefault("DELIVER_STREAM", "relay:deliver")
	viper.SetDefault("CONSUMER_GROUP", "relay")
	viper.SetDefault("VISIBILITY_TIMEOUT", time.Minute)
	viper.SetDefault("MAX_RECEIVES", 3)
	viper.SetDefault("MAX_DELAY", 15*time.Minute)
	viper.SetDefault("WORKER_CONCURRENCY", 4)
	viper.SetDefault("METRICS_PORT", "9090")
	viper.SetDefault("PLANS_FILE", "")

	if err := viper.ReadInConfig(); err != nil {
		// The file is optional; the environment alone is a full config
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}
