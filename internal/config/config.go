package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Outreach OutreachConfig `yaml:"outreach"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the configured host, defaulting to all interfaces.
func (s ServerConfig) GetHost() string {
	if s.Host == "" {
		return "0.0.0.0"
	}
	return s.Host
}

// DatabaseConfig holds the remote store connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds optional Redis settings for import progress tracking.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// OutreachConfig holds messaging and listing behavior settings.
type OutreachConfig struct {
	CountryPrefix string `yaml:"country_prefix"`
	Greeting      string `yaml:"greeting"`
	PageSize      int    `yaml:"page_size"`
	StaleDays     int    `yaml:"stale_days"`
}

// Load reads a YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML config and overrides it with environment
// variables (after loading .env if present). Missing config files are not
// fatal: the defaults plus environment are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
		cfg.applyDefaults()
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, perr := strconv.Atoi(port); perr == nil {
			cfg.Server.Port = p
		}
	}
	if prefix := os.Getenv("COUNTRY_PREFIX"); prefix != "" {
		cfg.Outreach.CountryPrefix = prefix
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Outreach.CountryPrefix == "" {
		c.Outreach.CountryPrefix = "54"
	}
	if c.Outreach.PageSize == 0 {
		c.Outreach.PageSize = 40
	}
	if c.Outreach.StaleDays == 0 {
		c.Outreach.StaleDays = 30
	}
}
