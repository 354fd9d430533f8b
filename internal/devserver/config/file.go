package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cinemaclub/internal/flagx"
	"github.com/dmitrijs2005/cinemaclub/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape. Pointer fields distinguish "absent" from
// zero so a file only overrides what it names.
type FileConfig struct {
	Addr                         *string         `json:"addr" yaml:"addr"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	AuthRateLimit                *float64        `json:"auth_rate_limit" yaml:"auth_rate_limit"`
	AuthRateBurst                *int            `json:"auth_rate_burst" yaml:"auth_rate_burst"`
	LogLevel                     *string         `json:"log_level" yaml:"log_level"`
	LogFormat                    *string         `json:"log_format" yaml:"log_format"`
}

func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return err
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.Addr != nil {
		cfg.Addr = *fc.Addr
	}
	if fc.SecretKey != nil {
		cfg.SecretKey = *fc.SecretKey
	}
	if fc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration != nil {
		cfg.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.BcryptCost != nil {
		cfg.BcryptCost = *fc.BcryptCost
	}
	if fc.AuthRateLimit != nil {
		cfg.AuthRateLimit = *fc.AuthRateLimit
	}
	if fc.AuthRateBurst != nil {
		cfg.AuthRateBurst = *fc.AuthRateBurst
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
}
