package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/cinemaclub/internal/flagx"
)

// parseFlags overlays cfg with the flags it recognises in args. Other
// arguments are ignored so the REPL and config-file flags do not clash.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-u", "-t", "-s", "-d", "-r", "-l", "-m"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "u", cfg.BaseURL, "API base URL")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "storage backend (sqlite, redis, memory)")
	fs.StringVar(&cfg.SQLitePath, "d", cfg.SQLitePath, "SQLite database path")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")

	return fs.Parse(args)
}
