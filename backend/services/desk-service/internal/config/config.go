package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "gamedesk/backend/libs/config"
)

// Config defines desk service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"DESK_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"DESK_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"DESK_REDIS_ADDR"`
		Password string `yaml:"password" env:"DESK_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"DESK_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"DESK_REDIS_TTL"`
	} `yaml:"redis"`
	Dashboard struct {
		RefreshSeconds int `yaml:"refreshSeconds" env:"DESK_DASHBOARD_REFRESH"`
	} `yaml:"dashboard"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8084"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 86400
	cfg.Dashboard.RefreshSeconds = 5

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8084"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ActiveSessionTTL returns ttl as duration.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// DashboardRefresh returns the snapshot interval for the dashboard feed.
func (c *Config) DashboardRefresh() time.Duration {
	if c.Dashboard.RefreshSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Dashboard.RefreshSeconds) * time.Second
}
