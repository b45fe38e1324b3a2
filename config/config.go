package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Oracle    OracleConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogFile        string   `mapstructure:"log_file"`
}

// FetchConfig holds page download configuration
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// OracleConfig holds the AI analysis backend configuration. An empty API key
// is valid: analysis then runs without the AI verdict.
type OracleConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type    string        `mapstructure:"type"` // "noop", "memory" or "lru"
	TTL     time.Duration `mapstructure:"ttl"`
	LRUSize int           `mapstructure:"lru_size"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// A missing .env file is fine; variables then come from the process
	// environment alone. godotenv never overrides variables already set.
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/prixy/")

	// Environment variable settings
	v.SetEnvPrefix("PRIXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "chrome-extension://*"})
	v.SetDefault("server.log_file", "")

	// Fetch defaults
	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.user_agent", "")

	// Oracle defaults
	v.SetDefault("oracle.base_url", "https://api.anthropic.com")
	v.SetDefault("oracle.model", "claude-3-5-haiku-20241022")
	v.SetDefault("oracle.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "noop")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.lru_size", 512)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch config.Cache.Type {
	case "noop", "memory", "lru":
	default:
		return fmt.Errorf("cache type must be 'noop', 'memory' or 'lru', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "lru" && config.Cache.LRUSize <= 0 {
		return fmt.Errorf("cache lru_size must be positive for the lru cache")
	}

	return nil
}
