// Package config loads server and CLI settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabasePath     string   `mapstructure:"DATABASE_PATH"`
	Timezone         string   `mapstructure:"ANALYTICS_TIMEZONE"`
	TopPatientsLimit int      `mapstructure:"TOP_PATIENTS_LIMIT"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	LogLevel         string   `mapstructure:"LOG_LEVEL"`
}

var keys = []string{
	"PORT",
	"ENV",
	"DATABASE_PATH",
	"ANALYTICS_TIMEZONE",
	"TOP_PATIENTS_LIMIT",
	"CORS_ORIGINS",
	"LOG_LEVEL",
}

func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith is Load with a caller-supplied viper instance, so command flags
// bound to v take precedence over the environment.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATABASE_PATH", "practice.db")
	v.SetDefault("ANALYTICS_TIMEZONE", "UTC")
	v.SetDefault("TOP_PATIENTS_LIMIT", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location returns the zone analytics boundaries are computed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ANALYTICS_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level returns the zerolog level for LOG_LEVEL.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

// Validate checks settings that would otherwise fail late, at first request.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.TopPatientsLimit < 0 {
		return fmt.Errorf("TOP_PATIENTS_LIMIT must not be negative, got %d", c.TopPatientsLimit)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
