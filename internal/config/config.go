// Package config provides YAML-based configuration loading for the schedule dashboard.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from ox.yaml.
type Config struct {
	Company   string          `yaml:"company"`
	LogLevel  string          `yaml:"log_level"`
	Database  DatabaseConfig  `yaml:"database"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Notify    NotifyConfig    `yaml:"notify"`
	Seed      SeedConfig      `yaml:"seed"`
}

// DatabaseConfig selects and locates the task database.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mysql" or "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"` // sqlite file
}

// DashboardConfig holds HTTP server settings.
type DashboardConfig struct {
	Port            int           `yaml:"port"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	SecureCookie    bool          `yaml:"secure_cookie"`
}

// AuthConfig holds session token and profile lookup settings.
type AuthConfig struct {
	Secret         string        `yaml:"secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	ProfileTimeout time.Duration `yaml:"profile_timeout"`
}

// CacheConfig enables the Redis task list cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// NotifyConfig controls the scheduled deadline digest.
type NotifyConfig struct {
	Platform     string `yaml:"platform"` // "", "slack" or "discord"
	SlackToken   string `yaml:"slack_bot_token"`
	DiscordToken string `yaml:"discord_bot_token"`
	ChannelID    string `yaml:"channel_id"`
	Schedule     string `yaml:"schedule"`
	WindowDays   int    `yaml:"window_days"`
	Limit        int    `yaml:"limit"`
}

// SeedConfig points at a static JSON task feed.
type SeedConfig struct {
	Path string `yaml:"path"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets secrets live outside the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OX_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("OX_SLACK_BOT_TOKEN"); v != "" {
		c.Notify.SlackToken = v
	}
	if v := os.Getenv("OX_DISCORD_BOT_TOKEN"); v != "" {
		c.Notify.DiscordToken = v
	}
	if v := os.Getenv("OX_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Company == "" {
		c.Company = "Blue Ox Enterprises"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	switch c.Database.Driver {
	case "mysql":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Database == "" {
			c.Database.Database = "schedule"
		}
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = "schedule.db"
		}
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Dashboard.RefreshInterval == 0 {
		c.Dashboard.RefreshInterval = 30 * time.Second
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 12 * time.Hour
	}
	if c.Auth.ProfileTimeout == 0 {
		c.Auth.ProfileTimeout = 3 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Notify.Schedule == "" {
		c.Notify.Schedule = "0 7 * * 1-5"
	}
	if c.Notify.WindowDays == 0 {
		c.Notify.WindowDays = 14
	}
	if c.Notify.Limit == 0 {
		c.Notify.Limit = 10
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (mysql, sqlite)", c.Database.Driver))
	}
	if c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required")
	} else if len(c.Auth.Secret) < 16 {
		errs = append(errs, "auth.secret must be at least 16 characters")
	}
	if c.Auth.SessionTTL < 0 {
		errs = append(errs, "auth.session_ttl must be positive")
	}
	if c.Auth.ProfileTimeout < 0 {
		errs = append(errs, "auth.profile_timeout must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}
	switch c.Notify.Platform {
	case "":
	case "slack":
		if c.Notify.SlackToken == "" {
			errs = append(errs, "notify.slack_bot_token is required for slack")
		}
		if c.Notify.ChannelID == "" {
			errs = append(errs, "notify.channel_id is required")
		}
	case "discord":
		if c.Notify.DiscordToken == "" {
			errs = append(errs, "notify.discord_bot_token is required for discord")
		}
		if c.Notify.ChannelID == "" {
			errs = append(errs, "notify.channel_id is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("notify.platform %q is not supported (slack, discord)", c.Notify.Platform))
	}
	if c.Notify.WindowDays < 0 {
		errs = append(errs, "notify.window_days must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
