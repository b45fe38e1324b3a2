package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("PRIXY_SERVER_PORT")
		os.Unsetenv("PRIXY_SERVER_ENVIRONMENT")
		os.Unsetenv("PRIXY_SERVER_LOG_FILE")
		os.Unsetenv("PRIXY_FETCH_TIMEOUT")
		os.Unsetenv("PRIXY_ORACLE_API_KEY")
		os.Unsetenv("PRIXY_ORACLE_BASE_URL")
		os.Unsetenv("PRIXY_ORACLE_MODEL")
		os.Unsetenv("PRIXY_CACHE_TYPE")
		os.Unsetenv("PRIXY_CACHE_TTL")
		os.Unsetenv("PRIXY_CACHE_LRU_SIZE")
		os.Unsetenv("PRIXY_RATELIMIT_PER_IP")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Fetch.Timeout != 15*time.Second {
			t.Errorf("Fetch.Timeout = %v, want 15s", cfg.Fetch.Timeout)
		}
		if cfg.Oracle.BaseURL != "https://api.anthropic.com" {
			t.Errorf("Oracle.BaseURL = %s, want https://api.anthropic.com", cfg.Oracle.BaseURL)
		}
		if cfg.Cache.Type != "noop" {
			t.Errorf("Cache.Type = %s, want noop", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 15*time.Minute {
			t.Errorf("Cache.TTL = %v, want 15m", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
	})

	t.Run("missing oracle API key is not an error", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil without oracle key", err)
		}
		if cfg.Oracle.APIKey != "" {
			t.Errorf("Oracle.APIKey = %s, want empty", cfg.Oracle.APIKey)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRIXY_SERVER_PORT", "9090")
		os.Setenv("PRIXY_SERVER_ENVIRONMENT", "production")
		os.Setenv("PRIXY_FETCH_TIMEOUT", "30s")
		os.Setenv("PRIXY_ORACLE_API_KEY", "custom-api-key")
		os.Setenv("PRIXY_ORACLE_BASE_URL", "https://custom.api.com")
		os.Setenv("PRIXY_CACHE_TYPE", "lru")
		os.Setenv("PRIXY_CACHE_TTL", "1h")
		os.Setenv("PRIXY_CACHE_LRU_SIZE", "1024")
		os.Setenv("PRIXY_RATELIMIT_PER_IP", "200")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Fetch.Timeout != 30*time.Second {
			t.Errorf("Fetch.Timeout = %v, want 30s", cfg.Fetch.Timeout)
		}
		if cfg.Oracle.APIKey != "custom-api-key" {
			t.Errorf("Oracle.APIKey = %s, want custom-api-key", cfg.Oracle.APIKey)
		}
		if cfg.Oracle.BaseURL != "https://custom.api.com" {
			t.Errorf("Oracle.BaseURL = %s, want https://custom.api.com", cfg.Oracle.BaseURL)
		}
		if cfg.Cache.Type != "lru" {
			t.Errorf("Cache.Type = %s, want lru", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.Cache.LRUSize != 1024 {
			t.Errorf("Cache.LRUSize = %d, want 1024", cfg.Cache.LRUSize)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PRIXY_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})
}

func TestLoadDotEnvFile(t *testing.T) {
	t.Run("loads when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)
		os.Unsetenv("PRIXY_SERVER_PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil when .env doesn't exist", err)
		}
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
	})

	t.Run("picks up variables from a .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# Local overrides
PRIXY_SERVER_PORT=7070
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("PRIXY_SERVER_PORT")
		defer os.Unsetenv("PRIXY_SERVER_PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070 from .env", cfg.Server.Port)
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		if err := os.WriteFile(".env", []byte("PRIXY_SERVER_PORT=7070"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Setenv("PRIXY_SERVER_PORT", "6060")
		defer os.Unsetenv("PRIXY_SERVER_PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "6060" {
			t.Errorf("Server.Port = %s, want 6060 (process env wins over .env)", cfg.Server.Port)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("validates successfully with all required fields", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{Port: "8080"},
			Cache:  CacheConfig{Type: "memory"},
		}

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails when port is empty", func(t *testing.T) {
		cfg := &Config{
			Cache: CacheConfig{Type: "noop"},
		}

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for empty port")
		}
	})

	t.Run("fails for invalid cache type", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{Port: "8080"},
			Cache:  CacheConfig{Type: "invalid-type"},
		}

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for invalid cache type")
		}
	})

	t.Run("validates lru cache type with size", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{Port: "8080"},
			Cache:  CacheConfig{Type: "lru", LRUSize: 512},
		}

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for valid lru config", err)
		}
	})

	t.Run("fails for lru cache without size", func(t *testing.T) {
		cfg := &Config{
			Server: ServerConfig{Port: "8080"},
			Cache:  CacheConfig{Type: "lru"},
		}

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for lru without size")
		}
	})
}
