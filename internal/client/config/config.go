package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/cinemaclub/internal/client/client"
	"github.com/dmitrijs2005/cinemaclub/internal/client/storage"
)

// Breaker holds the circuit breaker settings exposed to users.
type Breaker struct {
	Timeout      time.Duration `env:"TIMEOUT"`
	Interval     time.Duration `env:"INTERVAL"`
	FailureRatio float64       `env:"FAILURE_RATIO"`
	MinRequests  uint32        `env:"MIN_REQUESTS"`
}

// Config holds runtime settings for the cinemaclub CLI.
type Config struct {
	BaseURL        string        `env:"API_BASE_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	StorageBackend string `env:"STORAGE_BACKEND"`
	SQLitePath     string `env:"SQLITE_PATH"`
	KeyFile        string `env:"KEY_FILE"`
	Passphrase     string `env:"STORAGE_PASSPHRASE"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisPrefix   string `env:"REDIS_PREFIX"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	Breaker     Breaker `envPrefix:"BREAKER_"`
	MetricsAddr string  `env:"METRICS_ADDR"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	tc := client.DefaultTransportConfig()

	c.BaseURL = "http://localhost:8080"
	c.RequestTimeout = tc.Timeout
	c.StorageBackend = storage.BackendSQLite
	c.SQLitePath = "cinemaclub.db"
	c.KeyFile = "cinemaclub.key"
	c.Passphrase = ""
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPassword = ""
	c.RedisDB = 0
	c.RedisPrefix = "cinemaclub:"
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.Breaker = Breaker{
		Timeout:      tc.Breaker.Timeout,
		Interval:     tc.Breaker.Interval,
		FailureRatio: tc.Breaker.FailureRatio,
		MinRequests:  tc.Breaker.MinRequests,
	}
	c.MetricsAddr = ""
}

// Load constructs a Config from defaults, the config file, the environment
// and args (usually os.Args[1:]). Later sources take precedence.
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

// StorageOptions maps the storage settings onto storage.Options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:    c.StorageBackend,
		SQLitePath: c.SQLitePath,
		Passphrase: c.Passphrase,
		KeyFile:    c.KeyFile,
		Redis: storage.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		},
	}
}

// TransportConfig maps the transport settings onto client.TransportConfig.
func (c *Config) TransportConfig() client.TransportConfig {
	tc := client.DefaultTransportConfig()
	tc.Timeout = c.RequestTimeout
	tc.Breaker.Timeout = c.Breaker.Timeout
	tc.Breaker.Interval = c.Breaker.Interval
	tc.Breaker.FailureRatio = c.Breaker.FailureRatio
	tc.Breaker.MinRequests = c.Breaker.MinRequests
	return tc
}
