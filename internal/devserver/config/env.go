package config

import "github.com/caarlos0/env/v10"

const envPrefix = "CINEMACLUB_DEV_"

func parseEnv(cfg *Config) error {
	return env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix})
}
