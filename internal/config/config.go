// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Chat      ChatConfig      `yaml:"chat"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
}

// DatabaseConfig controls the SQL store. An empty driver selects the
// in-memory store.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // "postgres" or "sqlite"
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec"`
}

// AuthConfig controls bearer token issuance.
type AuthConfig struct {
	Secret      string `yaml:"secret"`
	TokenTTLMin int    `yaml:"token_ttl_min"`
}

// TokenTTL returns the configured token lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	if c.TokenTTLMin <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.TokenTTLMin) * time.Minute
}

// ChatConfig controls the external AI provider relay.
type ChatConfig struct {
	ProviderURL string `yaml:"provider_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// Timeout returns the bounded provider call timeout.
func (c ChatConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// RateLimitConfig controls per-caller request limits.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// CORSConfig controls allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from the path in TEND_CONFIG (default
// config/tend.yaml when present) and applies environment overrides.
func Load() (*Config, error) {
	cfg := defaultConfig()

	path := strings.TrimSpace(os.Getenv("TEND_CONFIG"))
	if path == "" {
		if _, err := os.Stat("config/tend.yaml"); err == nil {
			path = "config/tend.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth secret is required (auth.secret or TEND_AUTH_SECRET)")
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
		},
		Auth: AuthConfig{TokenTTLMin: 30},
		Chat: ChatConfig{
			ProviderURL: "https://api.anthropic.com/v1/messages",
			Model:       "claude-3-haiku-20240307",
			MaxTokens:   1024,
			TimeoutSec:  30,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 20, Burst: 40},
		CORS:      CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Logging:   LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "TEND_HOST")
	setInt(&cfg.Server.Port, "TEND_PORT")
	setString(&cfg.Database.Driver, "TEND_DB_DRIVER")
	setString(&cfg.Database.DSN, "TEND_DB_DSN")
	setString(&cfg.Auth.Secret, "TEND_AUTH_SECRET")
	setInt(&cfg.Auth.TokenTTLMin, "TEND_TOKEN_TTL_MIN")
	setString(&cfg.Chat.ProviderURL, "TEND_CHAT_PROVIDER_URL")
	setString(&cfg.Chat.APIKey, "TEND_CHAT_API_KEY")
	setString(&cfg.Chat.Model, "TEND_CHAT_MODEL")
	setInt(&cfg.Chat.TimeoutSec, "TEND_CHAT_TIMEOUT_SEC")
	setString(&cfg.Logging.Level, "TEND_LOG_LEVEL")
	setString(&cfg.Logging.Format, "TEND_LOG_FORMAT")
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
