package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/cinemaclub/internal/flagx"
)

// parseFlags applies the recognised flags from args:
//
//	-a string    listen address (e.g. ":8080")
//	-s string    JWT HMAC secret
//	-t duration  access token validity
//	-r duration  refresh token validity
//	-l string    log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to listen on")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.DurationVar(&cfg.AccessTokenValidityDuration, "t", cfg.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&cfg.RefreshTokenValidityDuration, "r", cfg.RefreshTokenValidityDuration, "refresh token validity")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
