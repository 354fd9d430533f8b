// Package config holds the development backend's settings: defaults,
// an optional JSON or YAML file, CINEMACLUB_DEV_ environment variables and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"
)

type Config struct {
	Addr                         string        `env:"ADDR"`
	SecretKey                    string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	BcryptCost                   int           `env:"BCRYPT_COST"`
	AuthRateLimit                float64       `env:"AUTH_RATE_LIMIT"`
	AuthRateBurst                int           `env:"AUTH_RATE_BURST"`
	LogLevel                     string        `env:"LOG_LEVEL"`
	LogFormat                    string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates Config with development defaults. The secret is not
// meant for anything but local use.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 1 * time.Minute
	c.RefreshTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = 10
	c.AuthRateLimit = 5
	c.AuthRateBurst = 20
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load builds a Config from defaults, the file named by -c/-config, the
// environment and flags in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
