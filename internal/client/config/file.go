package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/flagx"
	"github.com/dmitrijs2005/cinemaclub/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileBreaker is the file form of Breaker.
type FileBreaker struct {
	Timeout      *timex.Duration `json:"timeout" yaml:"timeout"`
	Interval     *timex.Duration `json:"interval" yaml:"interval"`
	FailureRatio *float64        `json:"failure_ratio" yaml:"failure_ratio"`
	MinRequests  *uint32         `json:"min_requests" yaml:"min_requests"`
}

// FileConfig is a DTO used only for decoding config files. Pointer fields
// let a file override just the settings it names.
type FileConfig struct {
	BaseURL        *string         `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	StorageBackend *string         `json:"storage_backend" yaml:"storage_backend"`
	SQLitePath     *string         `json:"sqlite_path" yaml:"sqlite_path"`
	KeyFile        *string         `json:"key_file" yaml:"key_file"`
	Passphrase     *string         `json:"storage_passphrase" yaml:"storage_passphrase"`
	RedisAddr      *string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword  *string         `json:"redis_password" yaml:"redis_password"`
	RedisDB        *int            `json:"redis_db" yaml:"redis_db"`
	RedisPrefix    *string         `json:"redis_prefix" yaml:"redis_prefix"`
	LogLevel       *string         `json:"log_level" yaml:"log_level"`
	LogFormat      *string         `json:"log_format" yaml:"log_format"`
	Breaker        *FileBreaker    `json:"breaker" yaml:"breaker"`
	MetricsAddr    *string         `json:"metrics_addr" yaml:"metrics_addr"`
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

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return err
	}

	fc.apply(cfg)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

func (fc *FileConfig) apply(cfg *Config) {
	set(&cfg.BaseURL, fc.BaseURL)
	setDuration(&cfg.RequestTimeout, fc.RequestTimeout)
	set(&cfg.StorageBackend, fc.StorageBackend)
	set(&cfg.SQLitePath, fc.SQLitePath)
	set(&cfg.KeyFile, fc.KeyFile)
	set(&cfg.Passphrase, fc.Passphrase)
	set(&cfg.RedisAddr, fc.RedisAddr)
	set(&cfg.RedisPassword, fc.RedisPassword)
	set(&cfg.RedisDB, fc.RedisDB)
	set(&cfg.RedisPrefix, fc.RedisPrefix)
	set(&cfg.LogLevel, fc.LogLevel)
	set(&cfg.LogFormat, fc.LogFormat)
	set(&cfg.MetricsAddr, fc.MetricsAddr)

	if b := fc.Breaker; b != nil {
		setDuration(&cfg.Breaker.Timeout, b.Timeout)
		setDuration(&cfg.Breaker.Interval, b.Interval)
		set(&cfg.Breaker.FailureRatio, b.FailureRatio)
		set(&cfg.Breaker.MinRequests, b.MinRequests)
	}
}
