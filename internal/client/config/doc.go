// Package config loads runtime configuration for the cinemaclub CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c or -config. The format is
//     chosen by extension: .yaml/.yml is YAML, anything else JSON.
//  3. Environment variables with the CINEMACLUB_ prefix.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-u string     API base URL
//	-t duration   request timeout
//	-s string     storage backend: sqlite, redis or memory
//	-d string     SQLite database path
//	-r string     Redis address
//	-l string     log level
//	-m string     metrics listen address; empty disables /metrics
//
// # File schema
//
// Durations are timex.Duration values, so "10s" and integer nanoseconds are
// both accepted:
//
//	{
//	  "api_base_url": "http://localhost:8080",
//	  "request_timeout": "10s",
//	  "storage_backend": "sqlite",
//	  "sqlite_path": "~/.cinemaclub/credentials.db",
//	  "breaker": {"timeout": "30s", "failure_ratio": 0.5, "min_requests": 5}
//	}
//
// The secure-storage passphrase is never read from flags; use the file or
// CINEMACLUB_STORAGE_PASSPHRASE.
package config
