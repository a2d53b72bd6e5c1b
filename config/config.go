package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Cache      CacheConfig
	Rates      RatesConfig
	AI         AIConfig
	Extraction ExtractionConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string `mapstructure:"type"` // "memory" or "redis"
	RedisURL string `mapstructure:"redis_url"`
}

// RatesConfig holds exchange-rate source configuration
type RatesConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	TTL               time.Duration `mapstructure:"ttl"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// AIConfig selects and configures the generative provider
type AIConfig struct {
	Provider string        `mapstructure:"provider"` // "none", "openai" or "gemini"
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ExtractionConfig tunes the page extractor
type ExtractionConfig struct {
	ImageTimeout      time.Duration `mapstructure:"image_timeout"`
	MinImageDimension int           `mapstructure:"min_image_dimension"`
	DescriptionMin    int           `mapstructure:"description_min"`
	DescriptionMax    int           `mapstructure:"description_max"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/betterbuy/")

	v.SetEnvPrefix("BETTERBUY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already present in the environment are not overridden.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("rates.base_url", "https://api.exchangerate-api.com/v4/latest/USD")
	v.SetDefault("rates.ttl", "24h")
	v.SetDefault("rates.timeout", "10s")
	v.SetDefault("rates.requests_per_second", 1.0)

	v.SetDefault("ai.provider", "none")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("extraction.image_timeout", "1s")
	v.SetDefault("extraction.min_image_dimension", 100)
	v.SetDefault("extraction.description_min", 20)
	v.SetDefault("extraction.description_max", 800)
	v.SetDefault("extraction.fetch_timeout", "15s")

	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log.level", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	switch config.AI.Provider {
	case "none":
	case "openai", "gemini":
		if config.AI.APIKey == "" {
			return fmt.Errorf("AI API key is required for provider %q (set BETTERBUY_AI_API_KEY)", config.AI.Provider)
		}
	default:
		return fmt.Errorf("ai provider must be 'none', 'openai' or 'gemini', got: %s", config.AI.Provider)
	}

	if config.Rates.BaseURL == "" {
		return fmt.Errorf("exchange rate base URL is required")
	}

	if config.Rates.TTL <= 0 {
		return fmt.Errorf("rates TTL must be positive, got: %s", config.Rates.TTL)
	}

	if config.Extraction.DescriptionMax < config.Extraction.DescriptionMin {
		return fmt.Errorf("extraction description_max (%d) must not be below description_min (%d)",
			config.Extraction.DescriptionMax, config.Extraction.DescriptionMin)
	}

	return nil
}
