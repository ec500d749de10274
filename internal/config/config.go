// Package config provides configuration management for TaskChat.
// Settings come from an optional YAML file plus environment variables with
// the TASKCHAT_ prefix; environment variables always win. Every option has
// a sensible default so the server starts with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the TaskChat application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Security SecurityConfig `yaml:"security"`
	Tools    ToolsConfig    `yaml:"tools"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 8000)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	StorageEngine string `yaml:"engine"`       // Storage engine: sqlite, postgres (default: sqlite)
	DataPath      string `yaml:"data_path"`    // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string `yaml:"postgres_dsn"` // PostgreSQL connection string
}

// LLMConfig contains LLM provider configuration. Provider selection follows
// key availability: OpenRouter first, then Groq, then OpenAI direct.
type LLMConfig struct {
	OpenRouterAPIKey string        `yaml:"openrouter_api_key"` // OpenRouter API key
	GroqAPIKey       string        `yaml:"groq_api_key"`       // Groq API key
	OpenAIAPIKey     string        `yaml:"openai_api_key"`     // OpenAI API key
	Model            string        `yaml:"model"`              // Model name (default: openai/gpt-4o-mini)
	Timeout          time.Duration `yaml:"timeout"`            // Per-request timeout (default: 60s)
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	SecurityMode string `yaml:"mode"`       // Security mode: development, production (default: development)
	TokenSecret  string `yaml:"secret_key"` // HMAC secret for bearer tokens
}

// ToolsConfig controls how the orchestrator reaches the tool gateway.
type ToolsConfig struct {
	// GatewayURL points at a standalone tool gateway process. When empty the
	// gateway runs in-process.
	GatewayURL string  `yaml:"gateway_url"`
	RateLimit  float64 `yaml:"rate_limit"` // Requests per second per client (default: 10)
	RateBurst  int     `yaml:"rate_burst"` // Burst allowance (default: 20)
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the TASKCHAT_ prefix.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	applyEnv(cfg)
	return cfg, nil
}

// LoadConfigFromFile reads a YAML configuration file, then applies
// environment variable overrides on top. A missing file is not an error;
// the env-plus-defaults config is returned instead.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Validate checks settings that have no workable default.
func (c *Config) Validate() error {
	switch c.Storage.StorageEngine {
	case "sqlite":
		// DataPath has a default; nothing more to check.
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("config: postgres engine requires TASKCHAT_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.StorageEngine)
	}

	if c.Security.SecurityMode == "production" && c.Security.TokenSecret == "" {
		return fmt.Errorf("config: production mode requires TASKCHAT_SECRET_KEY")
	}
	return nil
}

// defaultConfig constructs a Config with default values only.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8000,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			StorageEngine: "sqlite",
			DataPath:      "./data",
		},
		LLM: LLMConfig{
			Model:   "openai/gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Security: SecurityConfig{
			SecurityMode: "development",
		},
		Tools: ToolsConfig{
			RateLimit: 10,
			RateBurst: 20,
		},
	}
}

// applyEnv overlays TASKCHAT_ environment variables onto cfg.
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("TASKCHAT_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("TASKCHAT_HOST", cfg.Server.Host)

	cfg.Storage.StorageEngine = getEnv("TASKCHAT_STORAGE_ENGINE", cfg.Storage.StorageEngine)
	cfg.Storage.DataPath = getEnv("TASKCHAT_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("TASKCHAT_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.LLM.OpenRouterAPIKey = getEnv("TASKCHAT_OPENROUTER_API_KEY", cfg.LLM.OpenRouterAPIKey)
	cfg.LLM.GroqAPIKey = getEnv("TASKCHAT_GROQ_API_KEY", cfg.LLM.GroqAPIKey)
	cfg.LLM.OpenAIAPIKey = getEnv("TASKCHAT_OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.Model = getEnv("TASKCHAT_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.Timeout = getEnvDuration("TASKCHAT_LLM_TIMEOUT", cfg.LLM.Timeout)

	cfg.Security.SecurityMode = getEnv("TASKCHAT_SECURITY_MODE", cfg.Security.SecurityMode)
	cfg.Security.TokenSecret = getEnv("TASKCHAT_SECRET_KEY", cfg.Security.TokenSecret)

	cfg.Tools.GatewayURL = getEnv("TASKCHAT_TOOLS_URL", cfg.Tools.GatewayURL)
	cfg.Tools.RateLimit = getEnvFloat("TASKCHAT_RATE_LIMIT", cfg.Tools.RateLimit)
	cfg.Tools.RateBurst = getEnvInt("TASKCHAT_RATE_BURST", cfg.Tools.RateBurst)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (e.g. "30s") or
// returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
